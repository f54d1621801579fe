package narrative

import (
	"encoding/json"
	"fmt"
	"strings"
)

// moderationReply is the JSON document the moderation prompt asks the model
// to produce.
type moderationReply struct {
	ConversationSummary string   `json:"conversation_summary"`
	ConsensusIdea       string   `json:"consensus_idea"`
	Verdict             string   `json:"verdict"`
	RecommendedActions  []string `json:"recommended_actions"`
}

// parseExchange extracts the structured reply from raw model output. The
// model is instructed to answer with a single JSON object; anything the
// contract cannot recover from is a malformed-response failure.
func parseExchange(raw string, costUnits int) (Exchange, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Exchange{}, failf(KindMalformed, "locate JSON object in reply", fmt.Errorf("no JSON object in %d bytes of output", len(raw)))
	}

	var reply moderationReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &reply); err != nil {
		return Exchange{}, failf(KindMalformed, "decode moderation reply", err)
	}
	if strings.TrimSpace(reply.ConversationSummary) == "" {
		return Exchange{}, failf(KindMalformed, "decode moderation reply", fmt.Errorf("missing conversation_summary"))
	}

	signal, err := verdictSignal(reply.Verdict)
	if err != nil {
		return Exchange{}, err
	}

	actions := make([]string, 0, len(reply.RecommendedActions))
	for _, a := range reply.RecommendedActions {
		if s := strings.TrimSpace(a); s != "" {
			actions = append(actions, s)
		}
	}

	return Exchange{
		Text:          strings.TrimSpace(reply.ConversationSummary),
		Signal:        signal,
		ConsensusIdea: strings.TrimSpace(reply.ConsensusIdea),
		Actions:       actions,
		CostUnits:     costUnits,
	}, nil
}

// verdictSignal maps the model's verdict onto the consensus-signal scale:
// "align" means the participants agreed to converge, "critique" means the
// exchange pushed back on the ideas, "neutral" leaves the decision to the
// engine's seeded draw.
func verdictSignal(verdict string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(verdict)) {
	case "align":
		return SignalAgree, nil
	case "critique":
		return SignalCritique, nil
	case "neutral", "":
		return 0, nil
	default:
		return 0, failf(KindMalformed, "decode moderation reply", fmt.Errorf("unknown verdict %q", verdict))
	}
}

// buildInstruction renders the moderation prompt for one grouping.
func buildInstruction(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are moderating round %d of a hackathon ideation sprint.\n", p.Round)
	b.WriteString("Participants:\n")
	for _, part := range p.Participants {
		fmt.Fprintf(&b, "- %s (%s) idea: %s\n", part.Name, part.Role, part.Idea)
	}
	b.WriteString("\nRespond with a single JSON object containing keys:\n")
	b.WriteString("\"conversation_summary\": string,\n")
	b.WriteString("\"consensus_idea\": string,\n")
	b.WriteString("\"verdict\": one of \"align\", \"critique\", \"neutral\",\n")
	b.WriteString("\"recommended_actions\": array of strings.\n")
	b.WriteString("Keep the summary concise but specific. Surface at least one candid critique or skeptical take if it comes up, and allow the tone to be lively while staying constructive.")
	return b.String()
}
