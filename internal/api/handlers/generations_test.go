package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gundersenerik/dice/internal/models"
)

type fakeHistoryService struct {
	gotLimit  int
	gotOffset int
}

func (f *fakeHistoryService) GetForUser(ctx context.Context, user *models.User, id uuid.UUID) (*models.Generation, error) {
	return nil, nil
}

func (f *fakeHistoryService) History(ctx context.Context, user *models.User, limit, offset int) ([]models.Generation, error) {
	f.gotLimit = limit
	f.gotOffset = offset
	return nil, nil
}

func TestGenerationsListClampsPaging(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit", "?limit=50&offset=10", 50, 10},
		{"limit too high", "?limit=500", 20, 0},
		{"negative limit", "?limit=-5", 20, 0},
		{"negative offset", "?offset=-3", 20, 0},
		{"garbage", "?limit=abc&offset=xyz", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeHistoryService{}
			h := NewGenerationsHandler(svc)

			w := httptest.NewRecorder()
			h.List(w, authedRequest(http.MethodGet, "/api/v1/generations"+tt.query, ""))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if svc.gotLimit != tt.wantLimit || svc.gotOffset != tt.wantOffset {
				t.Errorf("service saw limit=%d offset=%d, want limit=%d offset=%d",
					svc.gotLimit, svc.gotOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
