package knowledge

import (
	"strings"
	"unicode/utf8"
)

// separators are tried in order: paragraphs, lines, words, then single runes.
var separators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most size runes, preferring paragraph,
// then line, then word boundaries. Consecutive chunks share up to overlap
// runes of trailing context.
func Split(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return splitRecursive(text, separators, size, overlap)
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	sep, rest := "", []string(nil)
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, fitting []string
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if runeLen(p) <= size {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, merge(fitting, sep, size, overlap)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, splitRecursive(p, rest, size, overlap)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, merge(fitting, sep, size, overlap)...)
	}
	return out
}

// merge joins pieces with sep into chunks no longer than size, carrying up to
// overlap runes of the previous chunk into the next.
func merge(pieces []string, sep string, size, overlap int) []string {
	sepLen := runeLen(sep)
	var (
		out   []string
		cur   []string
		total int
	)
	emit := func() {
		if doc := strings.TrimSpace(strings.Join(cur, sep)); doc != "" {
			out = append(out, doc)
		}
	}

	for _, p := range pieces {
		l := runeLen(p)
		joiner := 0
		if len(cur) > 0 {
			joiner = sepLen
		}
		if len(cur) > 0 && total+joiner+l > size {
			emit()
			for len(cur) > 0 && (total > overlap || total+sepLen+l > size) {
				drop := runeLen(cur[0])
				if len(cur) > 1 {
					drop += sepLen
				}
				total -= drop
				cur = cur[1:]
			}
		}
		if len(cur) > 0 {
			total += sepLen
		}
		cur = append(cur, p)
		total += l
	}
	if len(cur) > 0 {
		emit()
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
