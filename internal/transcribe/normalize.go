package transcribe

import (
	"strings"

	"github.com/siongui/gojianfan"
)

// NonSpeechMarker is emitted by some engines for audio they recognise as
// speech in a language they cannot transcribe. It is stored verbatim and
// exempt from script normalization.
const NonSpeechMarker = "(speaking in foreign language)"

// scriptPolicy declares a post-processing rule for one writing system.
// Rules are data rather than scattered conditionals: a rule fires when the
// requested or detected language is in its language set, or when the text
// itself matches the script heuristic.
type scriptPolicy struct {
	// name identifies the rule in logs.
	name string

	// languages lists the codes that select this rule outright.
	languages map[string]bool

	// matchesScript reports whether text is written in the rule's script,
	// used when neither language code selects the rule.
	matchesScript func(text string) bool

	// normalize rewrites the text into the canonical script variant.
	normalize func(text string) string
}

// scriptPolicies holds all active normalization rules. Currently one:
// Han text is stored in simplified form so transcripts and dedup keys stay
// consistent regardless of which variant the engine happened to emit.
var scriptPolicies = []scriptPolicy{
	{
		name:          "han-to-simplified",
		languages:     map[string]bool{"zh": true, "yue": true},
		matchesScript: containsHan,
		normalize:     gojianfan.T2S,
	},
}

// NormalizeScript applies the script normalization policy to transcribed
// text. requested is the caller's language hint (already lowercased codes,
// auto variants included) and detected is the engine-reported language.
// The non-speech placeholder is returned unchanged.
func NormalizeScript(text, requested, detected string) string {
	if strings.TrimSpace(text) == "" || strings.Contains(text, NonSpeechMarker) {
		return text
	}
	req := strings.ToLower(strings.TrimSpace(requested))
	det := strings.ToLower(strings.TrimSpace(detected))

	for _, p := range scriptPolicies {
		if p.languages[req] || p.languages[det] || p.matchesScript(text) {
			return p.normalize(text)
		}
	}
	return text
}

// containsHan reports whether text contains at least one rune in the CJK
// Unified Ideographs block or its common extension.
func containsHan(text string) bool {
	for _, r := range text {
		if (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF) {
			return true
		}
	}
	return false
}
