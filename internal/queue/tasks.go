package queue

const (
	TypeScoreForward = "langfuse:score"
	TypeStaleSweep   = "generation:sweep_stale"
)

type ScoreForwardPayload struct {
	TraceID string `json:"trace_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}
