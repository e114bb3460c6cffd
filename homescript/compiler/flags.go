package compiler

import (
	"sort"
	"strings"
)

// Compiler flags.
// Feature flags are enabled by `use` statements, all other flags are controlled by the caller.
type Flags uint32

const (
	// Allows `await` outside of function bodies.
	FlagTopLevelAwait Flags = 1 << iota
	// `/` on two integers produces a float.
	FeatureFloatDivision
	// Integer overflow in `+`, `-` and `*` raises an error instead of wrapping.
	FeatureCheckedArithmetic
)

// All flags which may be enabled by a `use` statement.
const FeatureMask = FeatureFloatDivision | FeatureCheckedArithmetic

var features = map[string]Flags{
	"float_division":     FeatureFloatDivision,
	"checked_arithmetic": FeatureCheckedArithmetic,
}

func LookupFeature(name string) (Flags, bool) {
	flag, found := features[name]
	return flag, found
}

func FeatureNames() []string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (self Flags) Has(flag Flags) bool {
	return self&flag == flag
}

func (self Flags) String() string {
	names := make([]string, 0)
	if self.Has(FlagTopLevelAwait) {
		names = append(names, "top_level_await")
	}
	for _, name := range FeatureNames() {
		if self.Has(features[name]) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
