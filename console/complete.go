package console

import (
	"sort"
	"strings"

	"github.com/smarthome-go/hmsconsole/homescript/lexer"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

// Characters which end the word being completed.
const wordBreakCharacters = " \t\n`~!@#$%^&*()-=+[{]}\\|;:'\",<>/?"

// Returns the sorted names reachable from `env` which start with the identifier at the end of `prefix`.
// Trailing characters which cannot be part of an identifier are ignored.
func Complete(prefix string, env *runtime.Environment) []string {
	prefix = strings.TrimRightFunc(prefix, func(char rune) bool { return !lexer.IsIdentChar(char) })

	start := strings.LastIndexFunc(prefix, func(char rune) bool { return !lexer.IsIdentChar(char) }) + 1
	word := prefix[start:]
	if word == "" {
		return []string{}
	}

	return matchNames(word, globalNames(env))
}

// Completes the word at the end of `source` like a line editor would.
// Besides global names, members of objects are completed for words like `obj.fi`.
// The second return value is the index in `source` where the completed word starts.
func CompleteAt(source string, env *runtime.Environment) ([]string, int) {
	start := strings.LastIndexAny(source, wordBreakCharacters) + 1
	word := source[start:]

	if dot := strings.LastIndex(word, "."); dot >= 0 {
		return attributeMatches(word[:dot], word[dot+1:], env), start
	}

	if word == "" {
		return []string{}, start
	}
	return matchNames(word, globalNames(env)), start
}

// Names visible to executed code: environment bindings, builtins and keywords.
func globalNames(env *runtime.Environment) []string {
	names := env.Names()
	names = append(names, runtime.BuiltinNames()...)
	names = append(names, lexer.KeywordNames()...)
	return names
}

func matchNames(word string, names []string) []string {
	seen := make(map[string]struct{})
	matches := make([]string, 0)

	for _, name := range names {
		if !strings.HasPrefix(name, word) {
			continue
		}
		if _, duplicate := seen[name]; duplicate {
			continue
		}
		seen[name] = struct{}{}
		matches = append(matches, name)
	}

	sort.Strings(matches)
	return matches
}

// Resolves `path` (for instance `a.b`) in the environment and completes the members of the result.
func attributeMatches(path string, member string, env *runtime.Environment) []string {
	parts := strings.Split(path, ".")

	base, found := env.Get(parts[0])
	if !found {
		base, found = runtime.LookupBuiltin(parts[0])
	}
	if !found {
		return []string{}
	}

	for _, part := range parts[1:] {
		fields, i := (*base).Fields()
		if i != nil {
			return []string{}
		}
		base, found = fields[part]
		if !found {
			return []string{}
		}
	}

	fields, i := (*base).Fields()
	if i != nil {
		return []string{}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	matches := matchNames(member, names)
	for idx, name := range matches {
		field := fields[name]
		suffix := ""
		if value.IsCallable((*field).Kind()) {
			suffix = "("
		}
		matches[idx] = path + "." + name + suffix
	}

	return matches
}
