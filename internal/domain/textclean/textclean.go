// Package textclean strips reasoning leakage from model output.
//
// Clean is total and deterministic. When stripping would leave next to
// nothing, the original text wins: an imperfect answer is better than an
// empty one.
package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinCleanLength is the length a cleaned result must exceed to replace the
// original text.
const MinCleanLength = 10

var (
	// RE2 has no backreferences, so each tag pair gets its own pattern.
	reasoningBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<think(?:\s[^>]*)?>.*?</think\s*>`),
		regexp.MustCompile(`(?is)<thinking(?:\s[^>]*)?>.*?</thinking\s*>`),
		regexp.MustCompile(`(?is)<reasoning(?:\s[^>]*)?>.*?</reasoning\s*>`),
	}

	blankLine    = regexp.MustCompile(`\n\s*\n`)
	excessBreaks = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// fillerLeadIns are matched against the trimmed, lower-cased paragraph start.
var fillerLeadIns = []string{
	"okay,",
	"let me think",
	"i need to think",
	"first, i should",
	"the user",
	"since there",
	"this feels like",
	"no need to",
	"keeping it simple:",
	"the response should",
	"thinking:",
	"reasoning:",
	"analysis:",
}

// Clean removes reasoning tags and filler paragraphs from text.
func Clean(text string) string {
	cleaned := text
	for _, re := range reasoningBlocks {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	var kept []string
	for _, paragraph := range blankLine.Split(cleaned, -1) {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" || isFiller(trimmed) {
			continue
		}
		kept = append(kept, paragraph)
	}

	cleaned = strings.Join(kept, "\n\n")
	cleaned = excessBreaks.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) <= MinCleanLength {
		return text
	}
	return cleaned
}

func isFiller(paragraph string) bool {
	lower := strings.ToLower(paragraph)
	for _, lead := range fillerLeadIns {
		if strings.HasPrefix(lower, lead) {
			return true
		}
	}
	return false
}
