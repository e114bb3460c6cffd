package ast

// Traverses the tree in depth-first order, starting with `node`.
// If `visit` returns false, the children of the current node are skipped.
func Inspect(node Node, visit func(Node) bool) {
	if node == nil || !visit(node) {
		return
	}

	switch node := node.(type) {
	case Program:
		for _, stmt := range node.Statements {
			Inspect(stmt, visit)
		}
	case Block:
		for _, stmt := range node.Statements {
			Inspect(stmt, visit)
		}
	// Statements
	case ExpressionStatement:
		Inspect(node.Expression, visit)
	case LetStatement:
		Inspect(node.Value, visit)
	case AssignStatement:
		for _, target := range node.Targets {
			Inspect(target, visit)
		}
		Inspect(node.Value, visit)
	case AugAssignStatement:
		Inspect(node.Target, visit)
		Inspect(node.Value, visit)
	case AnnAssignStatement:
		Inspect(node.Target, visit)
		if node.Value != nil {
			Inspect(node.Value, visit)
		}
	case FunctionDefinition:
		Inspect(node.Body, visit)
	case ReturnStatement:
		if node.Value != nil {
			Inspect(node.Value, visit)
		}
	case ThrowStatement:
		Inspect(node.Value, visit)
	case WhileStatement:
		Inspect(node.Condition, visit)
		Inspect(node.Body, visit)
	case ForStatement:
		Inspect(node.Iterator, visit)
		Inspect(node.Body, visit)
	case LoopStatement:
		Inspect(node.Body, visit)
	case ResultSignalStatement:
		Inspect(node.Value, visit)
	case BreakStatement, ContinueStatement, ImportStatement, FromImportStatement, UseStatement:
	// Expressions
	case RangeLiteralExpression:
		Inspect(node.Start, visit)
		Inspect(node.End, visit)
	case ListLiteralExpression:
		for _, item := range node.Values {
			Inspect(item, visit)
		}
	case ObjectLiteralExpression:
		for _, field := range node.Fields {
			Inspect(field.Value, visit)
		}
	case FunctionLiteralExpression:
		Inspect(node.Body, visit)
	case GroupedExpression:
		Inspect(node.Inner, visit)
	case PrefixExpression:
		Inspect(node.Base, visit)
	case AwaitExpression:
		Inspect(node.Value, visit)
	case InfixExpression:
		Inspect(node.Lhs, visit)
		Inspect(node.Rhs, visit)
	case CallExpression:
		Inspect(node.Base, visit)
		for _, arg := range node.Arguments {
			Inspect(arg, visit)
		}
	case IndexExpression:
		Inspect(node.Base, visit)
		Inspect(node.Index, visit)
	case MemberExpression:
		Inspect(node.Base, visit)
	case IfExpression:
		Inspect(node.Condition, visit)
		Inspect(node.ThenBlock, visit)
		if node.ElseBlock != nil {
			Inspect(*node.ElseBlock, visit)
		}
	case TryExpression:
		Inspect(node.TryBlock, visit)
		Inspect(node.CatchBlock, visit)
	case IntLiteralExpression, FloatLiteralExpression, BoolLiteralExpression,
		StringLiteralExpression, IdentExpression, NullLiteralExpression:
	default:
		panic("A new node was added without updating this code")
	}
}
