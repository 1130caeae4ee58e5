package schedule

import (
	"errors"
)

// ErrNoJSONArray is returned when an oracle response contains no locatable
// JSON array literal.
var ErrNoJSONArray = errors.New("no JSON array found in oracle response")

// extractJSONArray locates the first JSON array literal embedded anywhere in
// text and returns it, from its opening '[' to the matching ']'. The scan is
// string-literal aware so brackets inside quoted values don't unbalance the
// depth count. Responses containing no complete array fail with
// ErrNoJSONArray.
func extractJSONArray(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '[':
			if start < 0 {
				start = i
			}
			depth++
		case ']':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONArray
}
