package engine

import (
	"strings"
	"testing"

	"fulqrun/backend/internal/scoring/domain"
)

func TestScore_EmptyAnswers(t *testing.T) {
	res := Score(domain.Answers{}, domain.DefaultConfig())
	if res.Score != 0 {
		t.Errorf("Score = %d, want 0", res.Score)
	}
	if res.Band != domain.BandWeak {
		t.Errorf("Band = %q, want %q", res.Band, domain.BandWeak)
	}
	if len(res.Breakdown) != len(domain.Pillars) {
		t.Errorf("Breakdown has %d pillars, want %d", len(res.Breakdown), len(domain.Pillars))
	}
}

func TestScore_FullAnswers(t *testing.T) {
	long := strings.Repeat("The economic buyer controls the budget and has committed. ", 5)
	answers := domain.Answers{}
	for _, p := range domain.Pillars {
		answers[p] = long
	}
	res := Score(answers, domain.DefaultConfig())
	if res.Score <= 75 {
		t.Errorf("Score = %d, want > 75 for thorough answers", res.Score)
	}
	if res.Band != domain.BandStrong {
		t.Errorf("Band = %q, want %q", res.Band, domain.BandStrong)
	}
}

func TestPillarPoints(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		keywords []string
		want     int
	}{
		{"empty", "", nil, 0},
		{"whitespace only", "   ", nil, 0},
		{"short answer", "yes", nil, 4},
		{"medium answer", strings.Repeat("a", 60), nil, 7},
		{"long answer", strings.Repeat("a", 200), nil, 9},
		{"keyword bonus", "strong ROI story", []string{"roi"}, 5},
		{"case-insensitive keyword", "Budget approved by CFO", []string{"budget", "cfo"}, 6},
		{"capped at ten", strings.Repeat("roi budget pain ", 20), []string{"roi", "budget", "pain"}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pillarPoints(tt.answer, tt.keywords); got != tt.want {
				t.Errorf("pillarPoints(%q) = %d, want %d", tt.answer, got, tt.want)
			}
		})
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  domain.Band
	}{
		{0, domain.BandWeak},
		{25, domain.BandWeak},
		{26, domain.BandDeveloping},
		{50, domain.BandDeveloping},
		{51, domain.BandSolid},
		{75, domain.BandSolid},
		{76, domain.BandStrong},
		{100, domain.BandStrong},
	}
	for _, tt := range tests {
		if got := domain.BandFor(tt.score); got != tt.want {
			t.Errorf("BandFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScore_CustomWeights(t *testing.T) {
	cfg := domain.DefaultConfig()
	// Shift all weight onto metrics.
	for p := range cfg.Pillars {
		pc := cfg.Pillars[p]
		pc.Weight = 0
		cfg.Pillars[p] = pc
	}
	cfg.Pillars[domain.PillarMetrics] = domain.PillarConfig{Weight: 100}
	res := Score(domain.Answers{domain.PillarMetrics: strings.Repeat("a", 200)}, cfg)
	if res.Score != 90 {
		t.Errorf("Score = %d, want 90", res.Score)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := domain.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	pc := cfg.Pillars[domain.PillarMetrics]
	pc.Weight += 5
	cfg.Pillars[domain.PillarMetrics] = pc
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted weights summing to 105")
	}
	delete(cfg.Pillars, domain.PillarChampion)
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted missing pillar")
	}
}
