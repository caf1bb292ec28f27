package javascript

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/todobridge/bridge"
	"github.com/caffeineduck/todobridge/executor"
	"github.com/caffeineduck/todobridge/fsys"
	"github.com/caffeineduck/todobridge/hostfunc"
	"github.com/caffeineduck/todobridge/hostpath"
	"github.com/caffeineduck/todobridge/kvstore"
)

func TestWrapCodeAndArgs(t *testing.T) {
	js := New()

	wrapped := js.WrapCode(`console.log(1)`)
	if !strings.HasPrefix(wrapped, stdlib) {
		t.Error("prelude not prepended")
	}
	if !strings.HasSuffix(wrapped, "\nconsole.log(1)") {
		t.Errorf("user code not appended: %q", wrapped[len(wrapped)-20:])
	}

	args := js.Args("x")
	want := []string{"qjs", "--std", "-e", "x"}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", args, want)
	}
	if js.Name() != "javascript" {
		t.Errorf("name = %q", js.Name())
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.wasm")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "qjs.wasm")
	if err := os.WriteFile(path, []byte("\x00asm"), 0o644); err != nil {
		t.Fatal(err)
	}
	js, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(js.Module()) != "\x00asm" {
		t.Errorf("module = %q", js.Module())
	}

	t.Setenv(EnvModule, path)
	js, err = LoadDefault("")
	if err != nil {
		t.Fatalf("LoadDefault from env: %v", err)
	}
	if string(js.Module()) != "\x00asm" {
		t.Errorf("env module not used: %q", js.Module())
	}

	t.Setenv(EnvModule, "")
	js, err = LoadDefault("")
	if err != nil {
		t.Fatalf("LoadDefault embedded: %v", err)
	}
	if !bytes.Equal(js.Module(), New().Module()) || !bytes.HasPrefix(js.Module(), []byte("\x00asm")) {
		t.Error("expected the embedded QuickJS module")
	}
}

func TestPreludeCoversRegisteredServices(t *testing.T) {
	b, err := bridge.New(bridge.Deps{
		Paths: hostpath.Dirs{Downloads: t.TempDir(), UserData: t.TempDir()},
		Store: kvstore.NewMemory(kvstore.DefaultConfig()),
		FS:    fsys.NewOS(),
	})
	if err != nil {
		t.Fatal(err)
	}
	registry := hostfunc.NewRegistry()
	bridge.NewServices(b).Register(registry)

	var inPrelude []string
	for _, m := range regexp.MustCompile(`callHost\("(\w+)"`).FindAllStringSubmatch(stdlib, -1) {
		inPrelude = append(inPrelude, m[1])
	}
	sort.Strings(inPrelude)

	if got, want := strings.Join(inPrelude, ","), strings.Join(registry.List(), ","); got != want {
		t.Errorf("prelude services = %s\nregistered = %s", got, want)
	}
}

func TestJavaScriptBasicExecution(t *testing.T) {
	js := New()
	exec, err := executor.New(hostfunc.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	defer exec.Close()

	result := exec.Run(context.Background(), js, `console.log([1,2,3,4,5].reduce((a,b) => a + b, 0))`)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if strings.TrimSpace(result.Output) != "15" {
		t.Errorf("expected '15', got %q", result.Output)
	}
}

func TestJavaScriptTimeout(t *testing.T) {
	js := New()
	exec, err := executor.New(hostfunc.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	defer exec.Close()

	result := exec.Run(context.Background(), js, `while(true){}`, executor.WithTimeout(2*time.Second))
	if result.Error == nil || !strings.Contains(result.Error.Error(), "timeout") {
		t.Errorf("expected timeout error, got %v", result.Error)
	}
}

func TestJavaScriptScriptArgs(t *testing.T) {
	exec, err := executor.New(hostfunc.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	defer exec.Close()

	result := exec.Run(context.Background(), New(), `console.log(scriptArgs.slice(-2).join(","))`,
		executor.WithScriptArgs("one", "two"))
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if strings.TrimSpace(result.Output) != "one,two" {
		t.Errorf("expected 'one,two', got %q", result.Output)
	}
}

func TestJavaScriptServices(t *testing.T) {
	js := New()

	downloads, userData := t.TempDir(), t.TempDir()
	b, err := bridge.New(bridge.Deps{
		Paths: hostpath.Dirs{Downloads: downloads, UserData: userData},
		Store: kvstore.NewMemory(kvstore.DefaultConfig()),
		FS:    fsys.NewOS(),
	})
	if err != nil {
		t.Fatal(err)
	}
	registry := hostfunc.NewRegistry()
	bridge.NewServices(b).Register(registry)

	exec, err := executor.New(registry)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	defer exec.Close()

	result := exec.Run(context.Background(), js, `
console.log(services.readTodos());
console.log(services.writeTodos('[{"id":1}]'));
console.log(services.writeTodos('{broken'));
console.log(JSON.stringify(JSON.parse(services.readTodos())));
console.log(services.writeImageFile("not a data url"));
console.log(services.readSettings() === "");
console.log(JSON.stringify(services.cloudSyncState()));
`)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v\n%s", result.Error, result.Output)
	}

	want := strings.Join([]string{
		"[]",
		"true",
		"false",
		`[{"id":1}]`,
		"null",
		"true",
		`{"enabled":false,"syncing":false,"completed":false}`,
	}, "\n")
	if got := strings.TrimSpace(result.Output); !strings.HasPrefix(got, want) {
		t.Errorf("output:\n%s\nwant prefix:\n%s", got, want)
	}
	if result.Calls != 7 {
		t.Errorf("calls = %d, want 7", result.Calls)
	}
}

func TestJavaScriptHostErrorThrows(t *testing.T) {
	js := New()

	exec, err := executor.New(hostfunc.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	defer exec.Close()

	result := exec.Run(context.Background(), js, `
try {
  services.readFile("/nope");
} catch (e) {
  console.log("caught: " + e.message);
}
`)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if !strings.Contains(result.Output, "caught: unknown function: readFile") {
		t.Errorf("output = %q", result.Output)
	}
}
