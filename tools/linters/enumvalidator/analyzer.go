package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum fields only use defined constants, not string literals",
	Run:  run,
}

// enumTypes are the string enums whose values must come from declared
// constants.
var enumTypes = map[string]bool{
	"TaskStatus":       true,
	"TaskPriority":     true,
	"Severity":         true,
	"RuleDirection":    true,
	"NotificationType": true,
	"Partition":        true,
	"State":            true,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.AssignStmt:
				for i, lhs := range node.Lhs {
					if i >= len(node.Rhs) {
						continue
					}
					sel, ok := lhs.(*ast.SelectorExpr)
					if !ok || !isEnum(pass.TypesInfo.TypeOf(sel)) {
						continue
					}
					if isStringLiteral(node.Rhs[i]) {
						pass.Reportf(node.Pos(),
							"enum field %s assigned string literal; use defined constant instead",
							sel.Sel.Name)
					}
				}

			case *ast.CompositeLit:
				t := pass.TypesInfo.TypeOf(node)
				if t == nil {
					return true
				}
				if _, ok := t.Underlying().(*types.Struct); !ok {
					return true
				}
				for _, elt := range node.Elts {
					kv, ok := elt.(*ast.KeyValueExpr)
					if !ok {
						continue
					}
					key, ok := kv.Key.(*ast.Ident)
					if !ok || !isEnum(pass.TypesInfo.TypeOf(kv.Value)) {
						continue
					}
					if isStringLiteral(kv.Value) {
						pass.Reportf(kv.Pos(),
							"enum field %s set to string literal; use defined constant instead",
							key.Name)
					}
				}
			}
			return true
		})
	}
	return nil, nil
}

// isEnum unwraps pointers so *TaskStatus fields are checked too.
func isEnum(t types.Type) bool {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	return ok && enumTypes[named.Obj().Name()]
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}
