package executor

// Language is a WASM interpreter the executor can run scripts in.
type Language interface {
	// Name identifies the language. Compiled modules are cached under it.
	Name() string

	// Module returns the interpreter's WASM binary.
	Module() []byte

	// WrapCode prepends the prelude that binds host services for the script.
	WrapCode(code string) string

	// Args returns the interpreter command line for the wrapped code.
	Args(wrappedCode string) []string
}
