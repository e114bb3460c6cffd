package console

import (
	"fmt"
	"strings"
)

// Selects which value a fragment yields to its caller.
type ReturnMode uint8

const (
	// The value of a trailing expression statement.
	ReturnLastExpression ReturnMode = iota
	// Like ReturnLastExpression, a trailing assignment to a single name also yields the assigned value.
	ReturnLastExpressionOrAssignment
	// Nothing is returned.
	ReturnNone
)

func (self ReturnMode) String() string {
	switch self {
	case ReturnLastExpression:
		return "last_expr"
	case ReturnLastExpressionOrAssignment:
		return "last_expr_or_assign"
	case ReturnNone:
		return "none"
	default:
		return fmt.Sprintf("ReturnMode(%d)", uint8(self))
	}
}

// Reports an error for a mode outside of the known constants.
func (self ReturnMode) Validate() error {
	switch self {
	case ReturnLastExpression, ReturnLastExpressionOrAssignment, ReturnNone:
		return nil
	default:
		return fmt.Errorf("invalid return mode %d, expected one of last_expr, last_expr_or_assign or none", uint8(self))
	}
}

// Whether the value of a trailing expression is captured.
func (self ReturnMode) capturesExpression() bool {
	return self == ReturnLastExpression || self == ReturnLastExpressionOrAssignment
}

// Parses a return mode from its textual form.
// An unknown mode is a configuration error.
func ParseReturnMode(mode string) (ReturnMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "last_expr", "last-expr", "":
		return ReturnLastExpression, nil
	case "last_expr_or_assign", "last-expr-or-assign":
		return ReturnLastExpressionOrAssignment, nil
	case "none":
		return ReturnNone, nil
	default:
		return 0, fmt.Errorf("unknown return mode '%s', expected one of last_expr, last_expr_or_assign or none", mode)
	}
}

func (self ReturnMode) MarshalText() ([]byte, error) {
	return []byte(self.String()), nil
}

func (self *ReturnMode) UnmarshalText(text []byte) error {
	mode, err := ParseReturnMode(string(text))
	if err != nil {
		return err
	}
	*self = mode
	return nil
}
