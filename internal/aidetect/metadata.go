package aidetect

import "regexp"

// metadataPattern is one attribution phrase class with its fixed confidence.
type metadataPattern struct {
	re         *regexp.Regexp
	class      string
	confidence float64
}

// metadataPatterns match known AI-tool attribution phrases in commit and PR
// text. Confidence is fixed per pattern class, not computed.
var metadataPatterns = []metadataPattern{
	{
		re:         regexp.MustCompile(`(?i)\b(?:github copilot|copilot|chatgpt|gpt-4|gpt-4o|claude|codeium|tabnine|cursor|codewhisperer|gemini)\b`),
		class:      "tool_name",
		confidence: 0.85,
	},
	{
		re:         regexp.MustCompile(`(?i)(?:generated (?:by|with|using)|auto-?generated by) (?:ai|an? (?:ai|llm|language model)|\w+)`),
		class:      "generated_by",
		confidence: 0.90,
	},
	{
		re:         regexp.MustCompile(`(?i)co-authored-by:\s*(?:github copilot|copilot|claude|chatgpt|ai)\b`),
		class:      "co_author",
		confidence: 0.95,
	},
	{
		re:         regexp.MustCompile(`(?i)\b(?:ai[ -](?:generated|assisted|written)|written (?:by|with) ai)\b`),
		class:      "ai_attribution",
		confidence: 0.80,
	},
}

// AnalyzeMetadata matches commit and PR text against the attribution table.
// The highest-confidence matching class wins.
func AnalyzeMetadata(ctx CommitContext) MetadataSignal {
	texts := []string{ctx.CommitMessage, ctx.PRTitle, ctx.PRBody}

	best := MetadataSignal{}
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, p := range metadataPatterns {
			m := p.re.FindString(text)
			if m == "" {
				continue
			}
			if !best.Matched || p.confidence > best.Confidence {
				best = MetadataSignal{
					Matched:     true,
					Confidence:  p.confidence,
					MatchedText: m,
					Class:       p.class,
				}
			}
		}
	}

	return best
}
