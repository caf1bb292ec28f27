package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/caffeineduck/todobridge/hostfunc"
)

// Call frames written by the language preludes: \x00BRIDGE:{json}\x00
const (
	protocolPrefix = "\x00BRIDGE:"
	protocolSuffix = "\x00"
)

type callRequest struct {
	Fn   string         `json:"fn"`
	Args map[string]any `json:"args"`
}

type callResponse struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// protocolHandler sits on the guest's stderr. Call frames are answered on the
// guest's stdin; everything else is collected as stderr output.
type protocolHandler struct {
	ctx         context.Context
	registry    *hostfunc.Registry
	stdinWriter *io.PipeWriter
	logger      *slog.Logger
	realStderr  bytes.Buffer
	buf         bytes.Buffer
	calls       int
	mu          sync.Mutex
}

func newProtocolHandler(ctx context.Context, registry *hostfunc.Registry, stdinWriter *io.PipeWriter, logger *slog.Logger) *protocolHandler {
	return &protocolHandler{
		ctx:         ctx,
		registry:    registry,
		stdinWriter: stdinWriter,
		logger:      logger,
	}
}

// nextCall splits content around the first complete call frame. With no frame,
// before is the passthrough text. A frame that has started but not ended is
// returned in rest with complete false.
func nextCall(content string) (before, payload, rest string, complete bool) {
	start := strings.Index(content, protocolPrefix)
	if start == -1 {
		return content, "", "", false
	}
	body := content[start+len(protocolPrefix):]
	end := strings.Index(body, protocolSuffix)
	if end == -1 {
		return content[:start], "", content[start:], false
	}
	return content[:start], body[:end], body[end+len(protocolSuffix):], true
}

func (p *protocolHandler) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Write(data)

	for {
		before, payload, rest, complete := nextCall(p.buf.String())
		p.realStderr.WriteString(before)
		p.buf.Reset()
		if !complete {
			p.buf.WriteString(rest)
			break
		}
		p.buf.WriteString(rest)

		var req callRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			p.respond(callResponse{Error: "invalid call format"})
			continue
		}
		p.respond(p.handleCall(req))
	}

	return len(data), nil
}

// respond writes asynchronously since the pipe blocks until the guest reads.
func (p *protocolHandler) respond(resp callResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(callResponse{Error: "unencodable result: " + err.Error()})
	}
	go p.stdinWriter.Write(append(data, '\n'))
}

func (p *protocolHandler) handleCall(req callRequest) callResponse {
	p.calls++
	result, err := p.registry.Call(p.ctx, req.Fn, req.Args)
	if err != nil {
		p.logger.Debug("host call failed", "fn", req.Fn, "error", err)
		return callResponse{Error: err.Error()}
	}
	p.logger.Debug("host call", "fn", req.Fn)
	return callResponse{Data: result}
}

// Stderr returns guest stderr output with call frames removed. A trailing partial
// frame is included as written.
func (p *protocolHandler) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.realStderr.String() + p.buf.String()
}

func (p *protocolHandler) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
