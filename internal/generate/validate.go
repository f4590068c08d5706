package generate

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// AllowedImports lists every package generated tool code may import.
// "schema" and "toollog" are the virtual packages the sandbox injects; the
// rest are side-effect-free stdlib packages. Anything else (filesystem,
// network, process, reflection, dynamic loading) is rejected before the
// code ever reaches the interpreter.
var AllowedImports = map[string]bool{
	"strings":         true,
	"strconv":         true,
	"fmt":             true,
	"math":            true,
	"regexp":          true,
	"sort":            true,
	"bytes":           true,
	"unicode":         true,
	"unicode/utf8":    true,
	"errors":          true,
	"time":            true,
	"encoding/json":   true,
	"encoding/base64": true,
	"encoding/hex":    true,
	"schema":          true,
	"toollog":         true,
}

// deniedReceivers are package selectors that must never appear, even if the
// import slipped through (e.g. dot-import tricks or future allowlist edits).
var deniedReceivers = map[string]bool{
	"os":      true,
	"exec":    true,
	"syscall": true,
	"unsafe":  true,
	"plugin":  true,
	"reflect": true,
	"runtime": true,
	"net":     true,
	"http":    true,
	"interp":  true,
}

// ValidateSource runs the static checks on a generation candidate:
// syntactic validity, required exports, and the deny list. The first
// violation is returned with the offending construct named.
func ValidateSource(src string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "artifact.go", src, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	if file.Name == nil || file.Name.Name != "main" {
		return fmt.Errorf("%w: package must be main", ErrSyntax)
	}

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		if !AllowedImports[path] {
			return fmt.Errorf("%w: import %q is not permitted in generated tools", ErrForbiddenPattern, path)
		}
		if imp.Name != nil && (imp.Name.Name == "." || imp.Name.Name == "_") {
			return fmt.Errorf("%w: %s-import of %q", ErrForbiddenPattern, imp.Name.Name, path)
		}
	}

	if err := checkDeniedUsage(file); err != nil {
		return err
	}

	var hasSchema, hasHandler bool
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, s := range d.Specs {
				vs, ok := s.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, name := range vs.Names {
					if name.Name == "InputSchema" {
						hasSchema = true
					}
				}
			}
		case *ast.FuncDecl:
			if d.Name.Name == "Handler" && d.Recv == nil {
				hasHandler = true
			}
		}
	}

	if !hasSchema {
		return fmt.Errorf("%w: var InputSchema not declared", ErrMissingExport)
	}
	if !hasHandler {
		return fmt.Errorf("%w: func Handler not declared", ErrMissingExport)
	}

	return nil
}

// checkDeniedUsage walks the AST for selector references to denied packages
// and for go statements, which the sandbox cannot bound.
func checkDeniedUsage(file *ast.File) error {
	var violation error
	ast.Inspect(file, func(n ast.Node) bool {
		if violation != nil {
			return false
		}
		switch node := n.(type) {
		case *ast.SelectorExpr:
			if ident, ok := node.X.(*ast.Ident); ok && deniedReceivers[ident.Name] {
				violation = fmt.Errorf("%w: reference to %s.%s", ErrForbiddenPattern, ident.Name, node.Sel.Name)
				return false
			}
		case *ast.GoStmt:
			violation = fmt.Errorf("%w: go statement (goroutines escape the execution budget)", ErrForbiddenPattern)
			return false
		}
		return true
	})
	return violation
}
