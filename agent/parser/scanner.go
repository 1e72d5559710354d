package parser

import "regexp"

// maxObjectBytes bounds how far the scanner walks looking for the closing brace.
const maxObjectBytes = 64 << 10

var toolObjectStart = regexp.MustCompile(`\{\s*"tool"\s*:`)

// Span is a half-open byte range [Start, End) of the scanned text.
type Span struct {
	Start int
	End   int
}

// findToolObject returns the span of the first object that opens with a
// "tool" key, or false when there is none or it never closes.
func findToolObject(s string) (Span, bool) {
	loc := toolObjectStart.FindStringIndex(s)
	if loc == nil {
		return Span{}, false
	}
	end, ok := closingBrace(s, loc[0])
	if !ok {
		return Span{}, false
	}
	return Span{Start: loc[0], End: end}, true
}

// closingBrace walks from the '{' at start and returns the index just past
// the brace that balances it. Braces inside string literals are ignored.
// ASCII delimiters never occur inside multi-byte UTF-8 sequences, so a byte
// walk is safe.
func closingBrace(s string, start int) (int, bool) {
	limit := min(len(s), start+maxObjectBytes)

	var (
		depth    int
		inString bool
		escape   bool
	)
	for i := start; i < limit; i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
