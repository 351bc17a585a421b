package llm

import "testing"

func TestLookup(t *testing.T) {
	m, ok := Lookup("gpt-4o")
	if !ok {
		t.Fatal("expected gpt-4o to be known")
	}
	if m.Provider != "openai" {
		t.Errorf("provider = %q, want openai", m.Provider)
	}
	if m.MaxTokens != 16384 {
		t.Errorf("max tokens = %d, want 16384", m.MaxTokens)
	}

	if _, ok := Lookup("made-up-model"); ok {
		t.Error("expected made-up-model to be unknown")
	}
}

func TestCost(t *testing.T) {
	for _, m := range All() {
		if got := Cost(m.ID, 0, 0); got != 0 {
			t.Errorf("Cost(%s, 0, 0) = %v, want 0", m.ID, got)
		}
		if got := Cost(m.ID, 1000, 0); got != m.InputCostPer1K {
			t.Errorf("Cost(%s, 1000, 0) = %v, want %v", m.ID, got, m.InputCostPer1K)
		}
		if got := Cost(m.ID, 0, 1000); got != m.OutputCostPer1K {
			t.Errorf("Cost(%s, 0, 1000) = %v, want %v", m.ID, got, m.OutputCostPer1K)
		}
	}
}

func TestCostCombined(t *testing.T) {
	// gpt-4: 0.03 in, 0.06 out per 1K
	got := Cost("gpt-4", 500, 2000)
	want := 0.5*0.03 + 2.0*0.06
	if got != want {
		t.Errorf("Cost(gpt-4, 500, 2000) = %v, want %v", got, want)
	}
}

func TestCostUnknownModel(t *testing.T) {
	if got := Cost("made-up-model", 1000, 1000); got != 0 {
		t.Errorf("Cost(unknown) = %v, want 0", got)
	}
}

func TestByProvider(t *testing.T) {
	grouped := ByProvider()
	for _, provider := range []string{"anthropic", "openai", "google"} {
		if len(grouped[provider]) == 0 {
			t.Errorf("no models for provider %s", provider)
		}
	}

	total := 0
	for _, models := range grouped {
		total += len(models)
	}
	if total != len(All()) {
		t.Errorf("grouped %d models, table has %d", total, len(All()))
	}
}
