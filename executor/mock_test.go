package executor

import (
	"os"
	"testing"
)

// mockLanguage runs testdata/mock.wasm, a tiny command interpreter that
// exercises the executor without a real language runtime.
type mockLanguage struct {
	module []byte
}

func (m *mockLanguage) Name() string {
	return "mock"
}

func (m *mockLanguage) Module() []byte {
	return m.module
}

func (m *mockLanguage) WrapCode(code string) string {
	return code
}

func (m *mockLanguage) Args(wrappedCode string) []string {
	return []string{"mock", wrappedCode}
}

func newMockLanguage(t testing.TB) *mockLanguage {
	t.Helper()
	module, err := os.ReadFile("testdata/mock.wasm")
	if err != nil {
		t.Skip("testdata/mock.wasm not built (GOOS=wasip1 GOARCH=wasm go build -o mock.wasm mock.go)")
	}
	return &mockLanguage{module: module}
}
