package domain

import "testing"

func TestStageCanTransition(t *testing.T) {
	tests := []struct {
		from, to Stage
		want     bool
	}{
		{StageProspecting, StageEngaging, true},
		{StageProspecting, StageKeyDecision, true}, // skipping ahead is allowed
		{StageEngaging, StageProspecting, true},    // one step back
		{StageAdvancing, StageProspecting, false},  // two steps back
		{StageKeyDecision, StageAdvancing, true},
		{StageKeyDecision, StageEngaging, false},
		{StageEngaging, StageEngaging, false}, // no-op transition
		{StageEngaging, Stage("invalid"), false},
		{Stage("invalid"), StageEngaging, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOpportunityValidate(t *testing.T) {
	o := &Opportunity{Name: "Acme expansion", ValueCents: 120000}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if o.Stage != StageProspecting || o.Status != StatusOpen || o.Currency != "USD" {
		t.Errorf("defaults not applied: %+v", o)
	}

	if err := (&Opportunity{}).Validate(); err == nil {
		t.Error("Validate accepted empty name")
	}
	if err := (&Opportunity{Name: "x", ValueCents: -1}).Validate(); err == nil {
		t.Error("Validate accepted negative value")
	}
	if err := (&Opportunity{Name: "x", Stage: "closed_won"}).Validate(); err == nil {
		t.Error("Validate accepted unknown stage")
	}
}
