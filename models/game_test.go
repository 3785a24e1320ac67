package models

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     GameStatus
		to       GameStatus
		expected bool
	}{
		{name: "Scheduled to live", from: StatusScheduled, to: StatusLive, expected: true},
		{name: "Live to finished", from: StatusLive, to: StatusFinished, expected: true},
		{name: "Scheduled to finished", from: StatusScheduled, to: StatusFinished, expected: true},
		{name: "Finished back to live rejected", from: StatusFinished, to: StatusLive, expected: false},
		{name: "Live back to scheduled rejected", from: StatusLive, to: StatusScheduled, expected: false},
		{name: "Same status allowed", from: StatusLive, to: StatusLive, expected: true},
		{name: "Scheduled to postponed", from: StatusScheduled, to: StatusPostponed, expected: true},
		{name: "Live to suspended", from: StatusLive, to: StatusSuspended, expected: true},
		{name: "Suspended resumes to live", from: StatusSuspended, to: StatusLive, expected: true},
		{name: "Finished cannot be postponed", from: StatusFinished, to: StatusPostponed, expected: false},
		{name: "Live to cancelled", from: StatusLive, to: StatusCancelled, expected: true},
		{name: "Postponed to finished rejected", from: StatusPostponed, to: StatusFinished, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s, %s): expected %v, got %v", tt.from, tt.to, tt.expected, got)
			}
		})
	}
}

func TestMatchKeyNormalizes(t *testing.T) {
	a := MatchKey("Boston Celtics", "Miami Heat")
	b := MatchKey(" boston  celtics ", "MIAMI HEAT")
	if a != b {
		t.Errorf("normalized keys should match: %q vs %q", a, b)
	}

	c := MatchKey("Miami Heat", "Boston Celtics")
	if a == c {
		t.Error("home/away order is part of the identity")
	}
}

func TestAddSourceDeduplicates(t *testing.T) {
	g := GameRecord{DataSources: []string{"alpha"}}
	g.AddSource("alpha")
	g.AddSource("beta")
	g.AddSource("beta")

	if len(g.DataSources) != 2 {
		t.Errorf("expected deduplicated sources, got %v", g.DataSources)
	}
	if !g.HasSource("beta") || g.HasSource("gamma") {
		t.Error("HasSource misreporting membership")
	}
}
