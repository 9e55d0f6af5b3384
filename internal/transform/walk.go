package transform

import (
	"github.com/dop251/goja/ast"
)

// walk visits every node of the tree in pre-order. The goja ast package does
// not ship a visitor, so the passes share this one. Returning false from the
// callback prunes the subtree.
func walk(node ast.Node, visit func(ast.Node) bool) {
	if node == nil || isNil(node) {
		return
	}
	if !visit(node) {
		return
	}

	switch n := node.(type) {
	case *ast.Program:
		for _, s := range n.Body {
			walk(s, visit)
		}

	// Statements
	case *ast.BlockStatement:
		for _, s := range n.List {
			walk(s, visit)
		}
	case *ast.ExpressionStatement:
		walk(n.Expression, visit)
	case *ast.IfStatement:
		walk(n.Test, visit)
		walk(n.Consequent, visit)
		walk(n.Alternate, visit)
	case *ast.WhileStatement:
		walk(n.Test, visit)
		walk(n.Body, visit)
	case *ast.DoWhileStatement:
		walk(n.Body, visit)
		walk(n.Test, visit)
	case *ast.ForStatement:
		walkForInit(n.Initializer, visit)
		walk(n.Test, visit)
		walk(n.Update, visit)
		walk(n.Body, visit)
	case *ast.ForInStatement:
		walkForInto(n.Into, visit)
		walk(n.Source, visit)
		walk(n.Body, visit)
	case *ast.ForOfStatement:
		walkForInto(n.Into, visit)
		walk(n.Source, visit)
		walk(n.Body, visit)
	case *ast.ReturnStatement:
		walk(n.Argument, visit)
	case *ast.ThrowStatement:
		walk(n.Argument, visit)
	case *ast.TryStatement:
		walk(n.Body, visit)
		if n.Catch != nil {
			walk(n.Catch.Body, visit)
		}
		walk(n.Finally, visit)
	case *ast.SwitchStatement:
		walk(n.Discriminant, visit)
		for _, c := range n.Body {
			walk(c.Test, visit)
			for _, s := range c.Consequent {
				walk(s, visit)
			}
		}
	case *ast.LabelledStatement:
		walk(n.Statement, visit)
	case *ast.VariableStatement:
		for _, b := range n.List {
			walkBinding(b, visit)
		}
	case *ast.LexicalDeclaration:
		for _, b := range n.List {
			walkBinding(b, visit)
		}
	case *ast.FunctionDeclaration:
		walk(n.Function, visit)
	case *ast.ClassDeclaration:
		walk(n.Class, visit)
	case *ast.WithStatement:
		walk(n.Object, visit)
		walk(n.Body, visit)

	// Expressions
	case *ast.DotExpression:
		walk(n.Left, visit)
	case *ast.PrivateDotExpression:
		walk(n.Left, visit)
	case *ast.BracketExpression:
		walk(n.Left, visit)
		walk(n.Member, visit)
	case *ast.CallExpression:
		walk(n.Callee, visit)
		for _, a := range n.ArgumentList {
			walk(a, visit)
		}
	case *ast.NewExpression:
		walk(n.Callee, visit)
		for _, a := range n.ArgumentList {
			walk(a, visit)
		}
	case *ast.AssignExpression:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case *ast.BinaryExpression:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case *ast.UnaryExpression:
		walk(n.Operand, visit)
	case *ast.ConditionalExpression:
		walk(n.Test, visit)
		walk(n.Consequent, visit)
		walk(n.Alternate, visit)
	case *ast.SequenceExpression:
		for _, x := range n.Sequence {
			walk(x, visit)
		}
	case *ast.ArrayLiteral:
		for _, x := range n.Value {
			walk(x, visit)
		}
	case *ast.ObjectLiteral:
		for _, p := range n.Value {
			walkProperty(p, visit)
		}
	case *ast.SpreadElement:
		walk(n.Expression, visit)
	case *ast.TemplateLiteral:
		walk(n.Tag, visit)
		for _, x := range n.Expressions {
			walk(x, visit)
		}
	case *ast.AwaitExpression:
		walk(n.Argument, visit)
	case *ast.Optional:
		walk(n.Expression, visit)
	case *ast.OptionalChain:
		walk(n.Expression, visit)
	case *ast.FunctionLiteral:
		walkParams(n.ParameterList, visit)
		walk(n.Body, visit)
	case *ast.ArrowFunctionLiteral:
		walkParams(n.ParameterList, visit)
		walkConciseBody(n.Body, visit)
	case *ast.ClassLiteral:
		walk(n.SuperClass, visit)
		for _, el := range n.Body {
			walkClassElement(el, visit)
		}
	}
}

func walkForInit(init ast.ForLoopInitializer, visit func(ast.Node) bool) {
	switch i := init.(type) {
	case nil:
	case *ast.ForLoopInitializerExpression:
		walk(i.Expression, visit)
	case *ast.ForLoopInitializerVarDeclList:
		for _, b := range i.List {
			walkBinding(b, visit)
		}
	case *ast.ForLoopInitializerLexicalDecl:
		for _, b := range i.LexicalDeclaration.List {
			walkBinding(b, visit)
		}
	}
}

func walkForInto(into ast.ForInto, visit func(ast.Node) bool) {
	switch i := into.(type) {
	case nil:
	case *ast.ForIntoExpression:
		walk(i.Expression, visit)
	case *ast.ForIntoVar:
		walkBinding(i.Binding, visit)
	case *ast.ForDeclaration:
		// binding target only; nothing capturable inside
	}
}

// walkBinding descends into initializers only. Binding targets are
// declaration sites; rewriting an identifier there would corrupt the
// declaration.
func walkBinding(b *ast.Binding, visit func(ast.Node) bool) {
	if b == nil {
		return
	}
	walk(b.Initializer, visit)
}

func walkParams(pl *ast.ParameterList, visit func(ast.Node) bool) {
	if pl == nil {
		return
	}
	for _, b := range pl.List {
		walkBinding(b, visit)
	}
}

func walkConciseBody(body ast.ConciseBody, visit func(ast.Node) bool) {
	switch b := body.(type) {
	case nil:
	case *ast.BlockStatement:
		walk(b, visit)
	case *ast.ExpressionBody:
		walk(b.Expression, visit)
	}
}

func walkProperty(p ast.Property, visit func(ast.Node) bool) {
	switch prop := p.(type) {
	case nil:
	case *ast.PropertyKeyed:
		walk(prop.Key, visit)
		walk(prop.Value, visit)
	case *ast.PropertyShort:
		walk(prop.Initializer, visit)
	case *ast.SpreadElement:
		walk(prop.Expression, visit)
	}
}

func walkClassElement(el ast.ClassElement, visit func(ast.Node) bool) {
	switch e := el.(type) {
	case nil:
	case *ast.MethodDefinition:
		walk(e.Key, visit)
		walk(e.Body, visit)
	case *ast.FieldDefinition:
		walk(e.Key, visit)
		walk(e.Initializer, visit)
	case *ast.ClassStaticBlock:
		walk(e.Block, visit)
	}
}

// isNil reports whether an interface holds a nil pointer; goja hands back
// typed nils for optional children.
func isNil(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.Program:
		return v == nil
	case *ast.BlockStatement:
		return v == nil
	case *ast.FunctionLiteral:
		return v == nil
	case *ast.ClassLiteral:
		return v == nil
	case *ast.Identifier:
		return v == nil
	}
	return false
}
