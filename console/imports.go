package console

import (
	"sort"

	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
)

// Returns the sorted root names of all modules imported by `source`.
// Dotted names are truncated to their first component, nothing is executed.
func FindImports(source string) ([]string, error) {
	tree, _, err := ParseFragment(source, "<imports>")
	if err != nil {
		return nil, err
	}

	return importedRoots(tree), nil
}

func importedRoots(tree ast.Program) []string {
	roots := make(map[string]struct{})

	ast.Inspect(tree, func(node ast.Node) bool {
		switch node := node.(type) {
		case ast.ImportStatement:
			for _, name := range node.Names {
				roots[name.Path[0].Ident()] = struct{}{}
			}
		case ast.FromImportStatement:
			roots[node.Module.Path[0].Ident()] = struct{}{}
		}
		return true
	})

	output := make([]string, 0, len(roots))
	for root := range roots {
		output = append(output, root)
	}
	sort.Strings(output)

	return output
}
