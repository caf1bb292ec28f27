package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/caffeineduck/todobridge/hostfunc"
)

func TestNextCall(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantBefore   string
		wantPayload  string
		wantRest     string
		wantComplete bool
	}{
		{"no frame", "hello world", "hello world", "", "", false},
		{"empty", "", "", "", "", false},
		{"frame", "pre\x00BRIDGE:{\"fn\":\"x\"}\x00post", "pre", `{"fn":"x"}`, "post", true},
		{"frame at start", "\x00BRIDGE:{}\x00", "", "{}", "", true},
		{"partial frame", "pre\x00BRIDGE:{\"fn", "pre", "", "\x00BRIDGE:{\"fn", false},
		{"two frames", "\x00BRIDGE:1\x00\x00BRIDGE:2\x00", "", "1", "\x00BRIDGE:2\x00", true},
		{"stray nul", "a\x00b", "a\x00b", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, payload, rest, complete := nextCall(tt.content)
			if before != tt.wantBefore {
				t.Errorf("before = %q, want %q", before, tt.wantBefore)
			}
			if payload != tt.wantPayload {
				t.Errorf("payload = %q, want %q", payload, tt.wantPayload)
			}
			if rest != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
			if complete != tt.wantComplete {
				t.Errorf("complete = %v, want %v", complete, tt.wantComplete)
			}
		})
	}
}

func TestCallResponseJSON(t *testing.T) {
	tests := []struct {
		name     string
		resp     callResponse
		wantJSON string
	}{
		{"string", callResponse{Data: "value"}, `{"data":"value"}`},
		{"false is kept", callResponse{Data: false}, `{"data":false}`},
		{"empty string is kept", callResponse{Data: ""}, `{"data":""}`},
		{"nil data", callResponse{}, `{}`},
		{"error", callResponse{Error: "something failed"}, `{"error":"something failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("json = %s, want %s", data, tt.wantJSON)
			}
		})
	}
}

func newTestHandler(t *testing.T, registry *hostfunc.Registry) (*protocolHandler, *bufio.Reader) {
	t.Helper()
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newProtocolHandler(context.Background(), registry, w, logger), bufio.NewReader(r)
}

func readResponse(t *testing.T, r *bufio.Reader) callResponse {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	var resp callResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("decoding %q: %v", line, err)
	}
	return resp
}

func TestProtocolHandlerPassthrough(t *testing.T) {
	p, _ := newTestHandler(t, hostfunc.NewRegistry())

	p.Write([]byte("warning: "))
	p.Write([]byte("something\n"))

	if got := p.Stderr(); got != "warning: something\n" {
		t.Errorf("stderr = %q", got)
	}
	if p.Calls() != 0 {
		t.Errorf("calls = %d, want 0", p.Calls())
	}
}

func TestProtocolHandlerCall(t *testing.T) {
	registry := hostfunc.NewRegistry()
	registry.Register("greet", func(ctx context.Context, args map[string]any) (any, error) {
		return "Hello, " + args["name"].(string) + "!", nil
	})
	p, stdin := newTestHandler(t, registry)

	p.Write([]byte("before\x00BRIDGE:{\"fn\":\"greet\",\"args\":{\"name\":\"World\"}}\x00after"))

	resp := readResponse(t, stdin)
	if resp.Data != "Hello, World!" || resp.Error != "" {
		t.Errorf("response = %+v", resp)
	}
	if got := p.Stderr(); got != "beforeafter" {
		t.Errorf("stderr = %q, want %q", got, "beforeafter")
	}
	if p.Calls() != 1 {
		t.Errorf("calls = %d, want 1", p.Calls())
	}
}

func TestProtocolHandlerSplitFrame(t *testing.T) {
	registry := hostfunc.NewRegistry()
	registry.Register("ping", func(ctx context.Context, args map[string]any) (any, error) {
		return "pong", nil
	})
	p, stdin := newTestHandler(t, registry)

	frame := "\x00BRIDGE:{\"fn\":\"ping\"}\x00"
	for i := 0; i < len(frame); i++ {
		p.Write([]byte{frame[i]})
	}

	resp := readResponse(t, stdin)
	if resp.Data != "pong" {
		t.Errorf("data = %v, want pong", resp.Data)
	}
	if got := p.Stderr(); got != "" {
		t.Errorf("stderr = %q, want empty", got)
	}
}

func TestProtocolHandlerErrors(t *testing.T) {
	registry := hostfunc.NewRegistry()
	registry.Register("fail", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("disk on fire")
	})

	tests := []struct {
		name    string
		frame   string
		wantErr string
	}{
		{"invalid json", "\x00BRIDGE:{nope}\x00", "invalid call format"},
		{"unknown function", "\x00BRIDGE:{\"fn\":\"missing\"}\x00", "unknown function: missing"},
		{"function error", "\x00BRIDGE:{\"fn\":\"fail\"}\x00", "disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, stdin := newTestHandler(t, registry)
			p.Write([]byte(tt.frame))

			resp := readResponse(t, stdin)
			if !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantErr)
			}
		})
	}
}
