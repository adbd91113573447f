package notes

import (
	"regexp"

	"github.com/retainmd/retain/internal/domain"
)

// AnswerPlaceholder replaces the hidden answer span when a card is
// presented.
const AnswerPlaceholder = "[...]"

var clozePattern = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Cloze is one delimited answer span found in a card's text.
type Cloze struct {
	Match  string // full match including delimiters
	Answer string // inner text
	Index  int    // byte offset of the match
}

// FindClozes scans text for {{ }} delimiter pairs.
func FindClozes(text string) []Cloze {
	var out []Cloze
	for _, m := range clozePattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Cloze{
			Match:  text[m[0]:m[1]],
			Answer: text[m[2]:m[3]],
			Index:  m[0],
		})
	}
	return out
}

// HideAnswer replaces the first cloze span with the answer placeholder.
// Text without a valid delimiter pair is rejected.
func HideAnswer(text string) (string, error) {
	clozes := FindClozes(text)
	if len(clozes) == 0 {
		return "", domain.Validationf("no cloze delimiters found")
	}
	first := clozes[0]
	return text[:first.Index] + AnswerPlaceholder + text[first.Index+len(first.Match):], nil
}
