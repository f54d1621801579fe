package engine

import "strings"

// tokenize lowercases text and splits it into a set of alphanumeric tokens.
func tokenize(text string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		out[tok] = struct{}{}
	}
	return out
}

// slugify folds text into a stable lowercase dash-separated key. Used to
// bucket final ideas across runs.
func slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// orderedTokens returns the tokens of text in first-appearance order.
func orderedTokens(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	for _, tok := range strings.Fields(b.String()) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// mergeIdeas stitches two idea texts into one candidate blend: the shared
// vocabulary leads, a few distinguishing tokens follow.
func mergeIdeas(a, b string) string {
	tokensA := orderedTokens(a)
	tokensB := orderedTokens(b)
	inA := make(map[string]struct{}, len(tokensA))
	for _, t := range tokensA {
		inA[t] = struct{}{}
	}
	shared := make(map[string]struct{})
	var headline []string
	for _, t := range tokensB {
		if _, ok := inA[t]; ok {
			shared[t] = struct{}{}
			if len(headline) < 3 {
				headline = append(headline, t)
			}
		}
	}
	var extra []string
	for _, t := range append(append([]string{}, tokensA...), tokensB...) {
		if _, ok := shared[t]; ok {
			continue
		}
		extra = append(extra, t)
		if len(extra) == 5 {
			break
		}
	}
	stitched := strings.Join(append(headline, extra...), " ")
	base := strings.SplitN(a, ".", 2)[0]
	addition := strings.SplitN(b, ".", 2)[0]
	return base + " Now enriched with " + strings.ToLower(addition) + " to create a " + stitched + " play."
}
