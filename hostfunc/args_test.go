package hostfunc

import "testing"

func TestStringArg(t *testing.T) {
	v, err := StringArg(map[string]any{"path": "/tmp/x"}, "path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "/tmp/x" {
		t.Errorf("expected /tmp/x, got %q", v)
	}

	_, err = StringArg(map[string]any{}, "path")
	if err == nil || err.Error() != "path required" {
		t.Errorf("expected 'path required', got %v", err)
	}

	_, err = StringArg(map[string]any{"path": 42}, "path")
	if err == nil {
		t.Error("expected error for non-string value")
	}
}

func TestJSONTextArg(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"string passthrough", map[string]any{"json": `[{"id":1}]`}, `[{"id":1}]`},
		{"invalid string passthrough", map[string]any{"json": `not json`}, `not json`},
		{"slice encoded", map[string]any{"json": []any{"a", "b"}}, `["a","b"]`},
		{"map encoded", map[string]any{"json": map[string]any{"k": true}}, `{"k":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONTextArg(tt.args, "json")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJSONTextArgMissing(t *testing.T) {
	if _, err := JSONTextArg(map[string]any{}, "json"); err == nil {
		t.Error("expected error for missing value")
	}
	if _, err := JSONTextArg(map[string]any{"json": nil}, "json"); err == nil {
		t.Error("expected error for nil value")
	}
}
