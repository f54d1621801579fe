package engine

import "testing"

func TestIdeaAlignmentIdenticalIsMaximal(t *testing.T) {
	const idea = "predictive maintenance copilot for factories"
	identical := ideaAlignment(idea, idea)

	others := []string{
		"predictive maintenance dashboard for ships",
		"copilot for accessibility reviews",
		"community garden logistics app",
		"",
	}
	for _, other := range others {
		if got := ideaAlignment(idea, other); got >= identical {
			t.Errorf("alignment with %q = %v, expected less than identical (%v)", other, got, identical)
		}
	}
	if identical != 2.5 {
		t.Errorf("identical alignment = %v, want 2.5", identical)
	}
}

func TestIdeaAlignmentEdgeCases(t *testing.T) {
	if got := ideaAlignment("", "anything at all"); got != 0 {
		t.Errorf("empty idea alignment = %v, want 0", got)
	}
	if got := ideaAlignment("alpha beta", "gamma delta"); got != 0.1 {
		t.Errorf("disjoint idea alignment = %v, want 0.1", got)
	}
}

func TestPairAffinityIdenticalIdeasOutrank(t *testing.T) {
	mk := func(id, idea string) *Cluster {
		return &Cluster{
			ID:            id,
			Members:       []string{id},
			Idea:          idea,
			Personalities: []string{"Curious Collaborator"},
			XPLevels:      []string{"mid"},
		}
	}
	a := mk("c01", "predictive maintenance copilot for factories")
	b := mk("c02", "predictive maintenance copilot for factories")
	c := mk("c03", "community garden logistics app")
	d := mk("c04", "esports scrim analytics")

	identical := PairAffinity(a, b)
	for _, pair := range [][2]*Cluster{{a, c}, {a, d}, {b, c}, {b, d}, {c, d}} {
		if got := PairAffinity(pair[0], pair[1]); got >= identical {
			t.Errorf("affinity(%s,%s) = %v, expected below identical pair (%v)",
				pair[0].ID, pair[1].ID, got, identical)
		}
	}
}

func TestPairAffinitySymmetric(t *testing.T) {
	a := &Cluster{
		ID:            "c01",
		Idea:          "offline-first field notes",
		Skills:        []string{"go", "design"},
		Personalities: []string{"Analytical Architect"},
		XPLevels:      []string{"senior"},
	}
	b := &Cluster{
		ID:            "c02",
		Idea:          "field notes sync service",
		Skills:        []string{"go", "ops"},
		Personalities: []string{"Bold Experimenter"},
		XPLevels:      []string{"junior"},
	}
	if PairAffinity(a, b) != PairAffinity(b, a) {
		t.Error("affinity must be symmetric")
	}
}

func TestSkillMix(t *testing.T) {
	overlap, diversity := skillMix([]string{"go", "design", "ops"}, []string{"go", "research"})
	if overlap != 1 || diversity != 3 {
		t.Errorf("skillMix = (%d, %d), want (1, 3)", overlap, diversity)
	}
}

func TestCollabProbabilityBounds(t *testing.T) {
	if got := collabProbability(0); got != 0.2 {
		t.Errorf("probability at zero affinity = %v, want 0.2", got)
	}
	if got := collabProbability(-5); got != 0.2 {
		t.Errorf("negative affinity must clamp to the floor, got %v", got)
	}
	prev := 0.0
	for _, a := range []float64{0, 1, 3, 6, 20, 1000} {
		p := collabProbability(a)
		if p < prev {
			t.Fatalf("probability must be non-decreasing, %v after %v", p, prev)
		}
		if p >= 0.8 {
			t.Fatalf("probability must stay below 0.8, got %v at affinity %v", p, a)
		}
		prev = p
	}
}
