package console

import (
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

const DefaultReprLimit = 1000

// Returns the representation of `val`, shortened if it exceeds `limit` runes.
// The first `split` and the last `limit - split` runes are kept and joined by `separator`.
// A split of zero or below keeps the same number of runes on both sides.
func ReprShorten(val *value.Value, limit int, split int, separator string) string {
	var repr string
	if val == nil {
		repr = "null"
	} else {
		repr = value.Repr(*val)
	}

	return Shorten(repr, limit, split, separator)
}

func Shorten(text string, limit int, split int, separator string) string {
	if limit <= 0 {
		return text
	}
	if split <= 0 || split > limit {
		split = limit / 2
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:split]) + separator + string(runes[len(runes)-(limit-split):])
}
