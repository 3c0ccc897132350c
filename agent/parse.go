package agent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Sentinel is the literal a domain answer contains to request web search.
const Sentinel = "FALLBACK_TO_WEB_SEARCH"

var firstNumber = regexp.MustCompile(`\d+`)

// parseConfidence extracts the first integer in s, clamped to [0, 100].
// Output without digits scores 0.
func parseConfidence(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n > 100 {
		return 100
	}
	return n
}

// tokens splits model output on anything that cannot appear in an agent id.
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// parseAgentIDs reads the router's reply. Tokens that exactly match a known
// id win; only when none do are looser spellings accepted. The result keeps
// first-occurrence order without duplicates and may be empty.
func parseAgentIDs(reply string, known []ID) []ID {
	isKnown := func(id ID) bool {
		for _, k := range known {
			if k == id {
				return true
			}
		}
		return false
	}

	var out []ID
	add := func(id ID) {
		if !isKnown(id) {
			return
		}
		for _, o := range out {
			if o == id {
				return
			}
		}
		out = append(out, id)
	}

	toks := tokens(reply)
	for _, t := range toks {
		add(ID(t))
	}
	if len(out) > 0 {
		return out
	}

	for _, t := range toks {
		u := strings.ToUpper(t)
		switch {
		case u == "WEB" || u == "SEARCH" || u == "WEBSEARCH":
			add(WebSearch)
		case strings.HasPrefix(u, "FINANC"):
			add(Finance)
		case u == string(IT):
			// "it" is too common a word to trust in lower case
		default:
			add(ID(u))
		}
	}
	return out
}

// normalizeLabel reduces a one-word classification reply to its bare token.
func normalizeLabel(s string) string {
	toks := tokens(strings.ToUpper(s))
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

func parseGreeting(reply string) bool {
	return normalizeLabel(reply) == "GREETING"
}

func parseHistory(reply string) bool {
	return normalizeLabel(reply) == "HISTORY"
}

// parseAmbiguous defaults to clear: only an explicit AMBIGUOUS asks the user
// for more detail.
func parseAmbiguous(reply string) bool {
	return normalizeLabel(reply) == "AMBIGUOUS"
}

var recallPhrases = []string{"last question", "previous question", "what did i ask"}

// isRecallQuery reports whether query literally asks for the user's previous
// question.
func isRecallQuery(query string) bool {
	q := strings.ToLower(query)
	for _, p := range recallPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// stripSentinel removes the fallback sentinel, including occurrences that
// only form once an inner one is removed.
func stripSentinel(s string) string {
	for strings.Contains(s, Sentinel) {
		s = strings.ReplaceAll(s, Sentinel, "")
	}
	return strings.TrimSpace(s)
}
