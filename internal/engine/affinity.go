package engine

import "strings"

// Personality keyword weights, carried over from the compatibility model the
// simulation was tuned with.
var personalityWeights = map[string]float64{
	"visionary":    1.2,
	"facilitator":  1.0,
	"analytical":   0.9,
	"builder":      1.1,
	"empathetic":   1.0,
	"challenger":   0.7,
	"focused":      0.9,
	"architect":    1.0,
	"energetic":    0.8,
	"catalyst":     0.9,
	"synthesis":    0.8,
	"calm":         0.7,
	"optimizer":    0.8,
	"supportive":   0.8,
	"realist":      0.7,
	"bold":         1.1,
	"experimenter": 1.0,
	"outcome":      0.9,
	"driver":       0.9,
	"detail":       0.8,
	"advocate":     0.8,
	"strategic":    0.9,
	"connector":    0.9,
	"inclusive":    0.9,
	"spark":        1.0,
	"principled":   0.8,
	"mediator":     0.7,
	"enthusiastic": 0.9,
	"storyteller":  0.9,
}

// PairAffinity scores the compatibility of two clusters: skill overlap and
// diversity, personality keyword affinity, idea-text alignment, and an
// experience-mix bonus. Pure and stable under re-evaluation; ranking ties are
// broken by the run's seeded RNG stream, never here.
func PairAffinity(a, b *Cluster) float64 {
	overlap, diversity := skillMix(a.Skills, b.Skills)
	personality := personalityAffinity(a.Personalities, b.Personalities)
	alignment := ideaAlignment(a.Idea, b.Idea)
	xp := xpMixBonus(a.XPLevels, b.XPLevels)
	return float64(overlap)*0.6 + float64(diversity)*0.9 + personality + alignment + xp
}

func skillMix(a, b []string) (overlap, diversity int) {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}
	for s := range setA {
		if _, ok := setB[s]; ok {
			overlap++
		} else {
			diversity++
		}
	}
	for s := range setB {
		if _, ok := setA[s]; !ok {
			diversity++
		}
	}
	return overlap, diversity
}

func personalityAffinity(a, b []string) float64 {
	tokensA := personalityTokens(a)
	tokensB := personalityTokens(b)
	affinity := 0.0
	for _, ta := range tokensA {
		for _, tb := range tokensB {
			wa, okA := personalityWeights[ta]
			wb, okB := personalityWeights[tb]
			switch {
			case ta == tb:
				w := wa
				if !okA {
					w = 0.5
				}
				affinity += 1.1 * w
			case okA && okB:
				affinity += 0.2 * (wa + wb) / 2
			}
		}
	}
	return affinity
}

func personalityTokens(personalities []string) []string {
	var out []string
	for _, p := range personalities {
		for _, tok := range strings.Fields(p) {
			out = append(out, strings.ToLower(strings.Trim(tok, " ,.-")))
		}
	}
	return out
}

// ideaAlignment rewards shared idea vocabulary. Identical idea text yields
// the maximal alignment contribution.
func ideaAlignment(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	overlap := 0
	for t := range tokensA {
		if _, ok := tokensB[t]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0.1
	}
	union := len(tokensA) + len(tokensB) - overlap
	jaccard := float64(overlap) / float64(union)
	return 1.0 + jaccard*1.5
}

func xpMixBonus(a, b []string) float64 {
	levels := make(map[string]struct{})
	for _, l := range a {
		levels[l] = struct{}{}
	}
	for _, l := range b {
		levels[l] = struct{}{}
	}
	if len(levels) > 1 {
		return 0.5
	}
	return 0
}

// groupAffinity is the mean pairwise affinity of a grouping; a lone cluster
// scores a neutral 0.5.
func groupAffinity(clusters []*Cluster) float64 {
	if len(clusters) < 2 {
		return 0.5
	}
	sum, n := 0.0, 0
	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			sum += PairAffinity(clusters[i], clusters[j])
			n++
		}
	}
	return sum / float64(n)
}

// collabProbability maps a grouping's affinity onto the seeded draw used to
// resolve neutral consensus signals. Bounded away from both certainties.
func collabProbability(affinity float64) float64 {
	if affinity < 0 {
		affinity = 0
	}
	return 0.2 + 0.6*affinity/(affinity+6.0)
}
