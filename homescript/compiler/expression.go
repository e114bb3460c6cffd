package compiler

import (
	"github.com/smarthome-go/hmsconsole/homescript/errors"
	"github.com/smarthome-go/hmsconsole/homescript/parser/ast"
	"github.com/smarthome-go/hmsconsole/homescript/runtime/value"
)

func (self *Compiler) compileExpression(node ast.Expression) *errors.Error {
	switch node.Kind() {
	case ast.IntLiteralExpressionKind:
		node := node.(ast.IntLiteralExpression)
		self.insert(newValueInstruction(value.NewValueInt(node.Value)), node.Range)
	case ast.FloatLiteralExpressionKind:
		node := node.(ast.FloatLiteralExpression)
		self.insert(newValueInstruction(value.NewValueFloat(node.Value)), node.Range)
	case ast.BoolLiteralExpressionKind:
		node := node.(ast.BoolLiteralExpression)
		self.insert(newValueInstruction(value.NewValueBool(node.Value)), node.Range)
	case ast.StringLiteralExpressionKind:
		node := node.(ast.StringLiteralExpression)
		self.insert(newValueInstruction(value.NewValueString(node.Value)), node.Range)
	case ast.NullLiteralExpressionKind:
		self.insert(newValueInstruction(nullValue()), node.Span())
	case ast.IdentExpressionKind:
		ident := node.(ast.IdentExpression).Ident
		self.insertGet(ident.Ident(), ident.Span())
	case ast.RangeLiteralExpressionKind:
		node := node.(ast.RangeLiteralExpression)
		if err := self.compileExpression(node.Start); err != nil {
			return err
		}
		if err := self.compileExpression(node.End); err != nil {
			return err
		}
		inclusive := int64(0)
		if node.EndIsInclusive {
			inclusive = 1
		}
		self.insert(newOneIntInstruction(Opcode_MakeRange, inclusive), node.Range)
	case ast.ListLiteralExpressionKind:
		node := node.(ast.ListLiteralExpression)
		for _, elem := range node.Values {
			if err := self.compileExpression(elem); err != nil {
				return err
			}
		}
		self.insert(newOneIntInstruction(Opcode_MakeList, int64(len(node.Values))), node.Range)
	case ast.ObjectLiteralExpressionKind:
		node := node.(ast.ObjectLiteralExpression)
		keys := make([]string, 0, len(node.Fields))
		for _, field := range node.Fields {
			if err := self.compileExpression(field.Value); err != nil {
				return err
			}
			keys = append(keys, field.Key.Ident())
		}
		self.insert(newStringsInstruction(Opcode_MakeObject, keys), node.Range)
	case ast.FunctionLiteralExpressionKind:
		node := node.(ast.FunctionLiteralExpression)
		return self.compileFunction(AnonymousFunctionIdent, node.Parameters, node.Body, node.Range, "")
	case ast.GroupedExpressionKind:
		return self.compileExpression(node.(ast.GroupedExpression).Inner)
	case ast.PrefixExpressionKind:
		node := node.(ast.PrefixExpression)
		if err := self.compileExpression(node.Base); err != nil {
			return err
		}
		switch node.Operator {
		case ast.MinusPrefixOperator:
			self.insert(newPrimitiveInstruction(Opcode_Neg), node.Range)
		case ast.NegatePrefixOperator:
			self.insert(newPrimitiveInstruction(Opcode_Not), node.Range)
		}
	case ast.AwaitExpressionKind:
		node := node.(ast.AwaitExpression)
		if self.ctx.isModule && !self.flags.Has(FlagTopLevelAwait) {
			return errors.NewSyntaxError(node.Range, "'await' outside function")
		}
		if self.ctx.isModule {
			self.topLevelAwait = true
		}
		if err := self.compileExpression(node.Value); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Await), node.Range)
	case ast.InfixExpressionKind:
		return self.compileInfix(node.(ast.InfixExpression))
	case ast.CallExpressionKind:
		node := node.(ast.CallExpression)
		if err := self.compileExpression(node.Base); err != nil {
			return err
		}
		for _, arg := range node.Arguments {
			if err := self.compileExpression(arg); err != nil {
				return err
			}
		}
		self.insert(newOneIntInstruction(Opcode_Call, int64(len(node.Arguments))), node.Range)
	case ast.IndexExpressionKind:
		node := node.(ast.IndexExpression)
		if err := self.compileExpression(node.Base); err != nil {
			return err
		}
		if err := self.compileExpression(node.Index); err != nil {
			return err
		}
		self.insert(newPrimitiveInstruction(Opcode_Index), node.Range)
	case ast.MemberExpressionKind:
		node := node.(ast.MemberExpression)
		if err := self.compileExpression(node.Base); err != nil {
			return err
		}
		self.insert(newOneStringInstruction(Opcode_Member, node.Member.Ident()), node.Member.Span())
	case ast.IfExpressionKind:
		return self.compileIf(node.(ast.IfExpression))
	case ast.TryExpressionKind:
		return self.compileTry(node.(ast.TryExpression))
	default:
		panic("A new expression kind was added without updating this code")
	}

	return nil
}

func (self *Compiler) compileInfix(node ast.InfixExpression) *errors.Error {
	if err := self.compileExpression(node.Lhs); err != nil {
		return err
	}

	if node.Operator.ShortCircuits() {
		end := self.mangleLabel("logical_end")

		jump := Opcode_JumpIfFalse
		if node.Operator == ast.LogicalOrInfixOperator {
			jump = Opcode_JumpIfTrue
		}

		self.insert(newPrimitiveInstruction(Opcode_Duplicate), node.Range)
		self.insertJump(jump, end, node.Range)
		self.insert(newPrimitiveInstruction(Opcode_Drop), node.Range)
		if err := self.compileExpression(node.Rhs); err != nil {
			return err
		}
		self.insertLabel(end, node.Range)

		return nil
	}

	if err := self.compileExpression(node.Rhs); err != nil {
		return err
	}
	self.insertInfixOperator(node.Operator, node.Range)

	return nil
}

// Emits the instruction implementing a (non short-circuiting) binary operator.
// Which instruction is used depends on the enabled features.
func (self *Compiler) insertInfixOperator(operator ast.InfixOperator, span errors.Span) {
	checked := self.flags.Has(FeatureCheckedArithmetic)

	var opcode Opcode
	switch operator {
	case ast.PlusInfixOperator:
		opcode = Opcode_Add
		if checked {
			opcode = Opcode_AddChecked
		}
	case ast.MinusInfixOperator:
		opcode = Opcode_Sub
		if checked {
			opcode = Opcode_SubChecked
		}
	case ast.MultiplyInfixOperator:
		opcode = Opcode_Mul
		if checked {
			opcode = Opcode_MulChecked
		}
	case ast.DivideInfixOperator:
		opcode = Opcode_Div
		if self.flags.Has(FeatureFloatDivision) {
			opcode = Opcode_FloatDiv
		}
	case ast.ModuloInfixOperator:
		opcode = Opcode_Rem
	case ast.PowerInfixOperator:
		opcode = Opcode_Pow
	case ast.ShiftLeftInfixOperator:
		opcode = Opcode_Shl
	case ast.ShiftRightInfixOperator:
		opcode = Opcode_Shr
	case ast.BitOrInfixOperator:
		opcode = Opcode_BitOr
	case ast.BitAndInfixOperator:
		opcode = Opcode_BitAnd
	case ast.BitXorInfixOperator:
		opcode = Opcode_BitXor
	case ast.EqualInfixOperator:
		opcode = Opcode_Eq
	case ast.NotEqualInfixOperator:
		opcode = Opcode_Ne
	case ast.LessThanInfixOperator:
		opcode = Opcode_Lt
	case ast.LessThanEqualInfixOperator:
		opcode = Opcode_Le
	case ast.GreaterThanInfixOperator:
		opcode = Opcode_Gt
	case ast.GreaterThanEqualInfixOperator:
		opcode = Opcode_Ge
	default:
		panic("A new infix operator was added without updating this code")
	}

	self.insert(newPrimitiveInstruction(opcode), span)
}

func (self *Compiler) compileIf(node ast.IfExpression) *errors.Error {
	elseLabel := self.mangleLabel("if_else")
	end := self.mangleLabel("if_end")

	if err := self.compileExpression(node.Condition); err != nil {
		return err
	}
	self.insertJump(Opcode_JumpIfFalse, elseLabel, node.Range)

	if err := self.compileValueBlock(node.ThenBlock); err != nil {
		return err
	}
	self.insertJump(Opcode_Jump, end, node.Range)

	self.insertLabel(elseLabel, node.Range)
	if node.ElseBlock != nil {
		if err := self.compileValueBlock(*node.ElseBlock); err != nil {
			return err
		}
	} else {
		self.insert(newValueInstruction(nullValue()), node.Range)
	}

	self.insertLabel(end, node.Range)

	return nil
}

func (self *Compiler) compileTry(node ast.TryExpression) *errors.Error {
	catch := self.mangleLabel("try_catch")
	end := self.mangleLabel("try_end")

	self.insertJump(Opcode_SetTryLabel, catch, node.Range)

	self.ctx.tryDepth++
	if err := self.compileValueBlock(node.TryBlock); err != nil {
		return err
	}
	self.ctx.tryDepth--

	self.insert(newPrimitiveInstruction(Opcode_PopTryLabel), node.Range)
	self.insertJump(Opcode_Jump, end, node.Range)

	// The runtime pushes the caught exception before jumping here.
	self.insertLabel(catch, node.CatchBlock.Range)
	self.pushScope()
	self.insertDeclare(node.CatchIdent.Ident(), node.CatchIdent.Span())
	if err := self.compileValueBlock(node.CatchBlock); err != nil {
		return err
	}
	self.popScope()

	self.insertLabel(end, node.Range)

	return nil
}
