package console

import (
	"github.com/smarthome-go/hmsconsole/homescript/lexer"
)

// Reports whether the output of `source` should be suppressed.
// This is the case if the last significant token is a semicolon, comments and newlines are skipped.
// Source which cannot be tokenized is never quiet.
func ShouldQuiet(source string) bool {
	tokens, err := lexer.Tokenize(source, "<quiet>", true)
	if err != nil {
		return false
	}

	for idx := len(tokens) - 1; idx >= 0; idx-- {
		switch tokens[idx].Kind {
		case lexer.EOF, lexer.Newline, lexer.NonLogicalNewline, lexer.Comment:
			continue
		case lexer.Semicolon:
			return true
		default:
			return false
		}
	}

	return false
}
