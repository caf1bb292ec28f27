// Package javascript runs plugin scripts on QuickJS compiled to WASI.
//
// The interpreter is embedded from go-quickjs-wasi. [Load] swaps in another
// qjs.wasm build, for example one pinned by executor.runtime in the config.
// Scripts see a global services object whose methods call the host
// synchronously.
package javascript

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	quickjswasi "github.com/paralin/go-quickjs-wasi"
)

//go:embed stdlib.js
var stdlib string

// EnvModule names the environment variable consulted by [LoadDefault].
const EnvModule = "TODOBRIDGE_QJS_WASM"

// JavaScript implements the executor.Language interface for JavaScript execution.
type JavaScript struct {
	module []byte
}

// New returns a JavaScript language adapter over the embedded QuickJS build.
func New() *JavaScript {
	return FromModule(quickjswasi.QuickJSWASM)
}

// FromModule returns an adapter over an already loaded QuickJS module.
func FromModule(module []byte) *JavaScript {
	return &JavaScript{module: module}
}

// Load reads the QuickJS module from path.
func Load(path string) (*JavaScript, error) {
	if path == "" {
		return nil, errors.New("javascript: no QuickJS module path")
	}
	module, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("javascript: loading QuickJS module: %w", err)
	}
	return FromModule(module), nil
}

// LoadDefault loads path, or the module named by TODOBRIDGE_QJS_WASM when path
// is empty. With neither set it returns the embedded build.
func LoadDefault(path string) (*JavaScript, error) {
	if path == "" {
		path = os.Getenv(EnvModule)
	}
	if path == "" {
		return New(), nil
	}
	return Load(path)
}

func (j *JavaScript) Name() string {
	return "javascript"
}

// Module returns the QuickJS WASM binary.
func (j *JavaScript) Module() []byte {
	return j.module
}

// WrapCode prepends the services prelude to user code.
func (j *JavaScript) WrapCode(code string) string {
	return stdlib + "\n" + code
}

// Args returns the command-line arguments for the QuickJS interpreter.
func (j *JavaScript) Args(wrappedCode string) []string {
	return []string{"qjs", "--std", "-e", wrappedCode}
}
