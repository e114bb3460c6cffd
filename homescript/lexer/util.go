package lexer

//
// Character classes
//

// Identifiers and numbers are restricted to ASCII.
func IsDigit(char rune) bool { return '0' <= char && char <= '9' }

func IsHexDigit(char rune) bool {
	lower := char | 0x20
	return IsDigit(char) || ('a' <= lower && lower <= 'f')
}

func IsLetter(char rune) bool {
	lower := char | 0x20
	return char == '_' || ('a' <= lower && lower <= 'z')
}

func IsIdentChar(char rune) bool { return IsLetter(char) || IsDigit(char) }
