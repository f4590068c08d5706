package sandbox

import (
	"path"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"toolforge/internal/schema"
)

// allowedStdlib is the set of stdlib import paths visible inside the
// sandbox. Everything performing I/O, process control, or reflection is
// absent; the interpreter cannot resolve an import that is not exported to
// it, so this is the hard boundary, with static validation as the first
// line.
var allowedStdlib = map[string]bool{
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
}

// restrictedStdlib filters yaegi's stdlib symbol table down to the
// allowlist. Symbol keys have the form "importPath/pkgName".
func restrictedStdlib() interp.Exports {
	out := make(interp.Exports, len(allowedStdlib))
	for key, symbols := range stdlib.Symbols {
		importPath := path.Dir(key)
		if allowedStdlib[importPath] {
			out[key] = symbols
		}
	}
	return out
}

// schemaExports exposes the schema construction API under the virtual
// import path "schema".
func schemaExports() interp.Exports {
	return interp.Exports{
		"schema/schema": {
			"Object":  reflect.ValueOf(schema.Object),
			"String":  reflect.ValueOf(schema.String),
			"Number":  reflect.ValueOf(schema.Number),
			"Integer": reflect.ValueOf(schema.Integer),
			"Boolean": reflect.ValueOf(schema.Boolean),
			"Array":   reflect.ValueOf(schema.Array),
			"Map":     reflect.ValueOf(schema.Map),
			"Any":     reflect.ValueOf(schema.Any),

			"TypeString":  reflect.ValueOf(schema.TypeString),
			"TypeNumber":  reflect.ValueOf(schema.TypeNumber),
			"TypeInteger": reflect.ValueOf(schema.TypeInteger),
			"TypeBoolean": reflect.ValueOf(schema.TypeBoolean),
			"TypeArray":   reflect.ValueOf(schema.TypeArray),
			"TypeObject":  reflect.ValueOf(schema.TypeObject),
			"TypeAny":     reflect.ValueOf(schema.TypeAny),

			"Schema": reflect.ValueOf((*schema.Schema)(nil)),
			"Field":  reflect.ValueOf((*schema.Field)(nil)),
		},
	}
}

// toollogExports exposes the write-only logging shim under the virtual
// import path "toollog". Every line is tagged with the tool name so sandbox
// output is distinguishable from host logs.
func toollogExports(logger *zap.Logger, toolName string) interp.Exports {
	sugar := logger.Named("sandbox").Sugar().With("tool", toolName)
	return interp.Exports{
		"toollog/toollog": {
			"Info":  reflect.ValueOf(func(format string, args ...any) { sugar.Infof(format, args...) }),
			"Warn":  reflect.ValueOf(func(format string, args ...any) { sugar.Warnf(format, args...) }),
			"Error": reflect.ValueOf(func(format string, args ...any) { sugar.Errorf(format, args...) }),
		},
	}
}
