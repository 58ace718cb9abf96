package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Clean applies the cleaning rules to raw extracted text, in the fixed
// order the rules are documented: line-ending normalization, blank-line
// collapsing, OCR word-split rejoining, punctuation spacing, elision
// expansion, and whitespace trimming. Clean is pure and idempotent:
// Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	text = normalizeLineEndings(text)
	text = collapseBlankLines(text)
	text = rejoinWordSplits(text)
	text = spacePunctuation(text)
	text = expandElisions(text)
	text = trimLines(text)
	return text
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// reBlankRun matches two or more consecutive blank lines; a line of
// only spaces or tabs counts as blank.
var reBlankRun = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

func collapseBlankLines(s string) string {
	return reBlankRun.ReplaceAllString(s, "\n\n")
}

// rejoinWordSplits collapses a single LF between two non-empty lines
// into a single space, leaving blank-line paragraph separators intact.
func rejoinWordSplits(s string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			prevEmpty := lines[i-1] == ""
			curEmpty := line == ""
			if prevEmpty || curEmpty {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(line)
	}
	return b.String()
}

var (
	rePeriodUpper  = regexp.MustCompile(`\.([A-Z])`)
	reCommaSemiAny = regexp.MustCompile(`([,;])([A-Za-z])`)
)

func spacePunctuation(s string) string {
	s = rePeriodUpper.ReplaceAllString(s, ". $1")
	s = reCommaSemiAny.ReplaceAllString(s, "$1 $2")
	return s
}

func expandElisions(s string) string {
	keys := make([]string, 0, len(elisionTable))
	for k := range elisionTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		re := elisionPattern(k)
		s = re.ReplaceAllString(s, elisionTable[k])
	}
	return s
}

func elisionPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	return strings.Trim(s, "\n")
}
