package http

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-errors/errors"
)

// Emitter is the execution environment a Response is sent through.
type Emitter interface {
	io.Writer

	// HeadersSent reports whether the status line and headers are out.
	HeadersSent() bool

	// EmitHeader queues one header line. With replace, earlier values of
	// the same header are dropped.
	EmitHeader(name, value string, replace bool) error

	// EmitStatus emits the status line and the queued headers.
	EmitStatus(protocol string, code int, reason string) error

	// Finish flushes buffered output and signals completion.
	Finish() error
}

// ── net/http ──────────────────────────────────────────────────────────────────

// ResponseWriterEmitter sends responses through a net/http ResponseWriter.
// net/http writes its own status line, so the protocol and reason are not
// used.
type ResponseWriterEmitter struct {
	w           http.ResponseWriter
	wroteHeader bool
}

func NewResponseWriterEmitter(w http.ResponseWriter) *ResponseWriterEmitter {
	return &ResponseWriterEmitter{w: w}
}

func (e *ResponseWriterEmitter) HeadersSent() bool { return e.wroteHeader }

func (e *ResponseWriterEmitter) EmitHeader(name, value string, replace bool) error {
	if replace {
		e.w.Header().Set(name, value)
	} else {
		e.w.Header().Add(name, value)
	}
	return nil
}

func (e *ResponseWriterEmitter) EmitStatus(_ string, code int, _ string) error {
	e.w.WriteHeader(code)
	e.wroteHeader = true
	return nil
}

func (e *ResponseWriterEmitter) Write(p []byte) (int, error) {
	e.wroteHeader = true
	return e.w.Write(p)
}

func (e *ResponseWriterEmitter) Finish() error {
	err := http.NewResponseController(e.w).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}

// ── Raw HTTP/1.x ──────────────────────────────────────────────────────────────

// WireEmitter writes a response as raw HTTP/1.x text: status line, header
// lines, blank line, body. Output is buffered until Finish.
type WireEmitter struct {
	w       *bufio.Writer
	headers []headerField
	sent    bool
}

func NewWireEmitter(w io.Writer) *WireEmitter {
	return &WireEmitter{w: bufio.NewWriter(w)}
}

func (e *WireEmitter) HeadersSent() bool { return e.sent }

func (e *WireEmitter) EmitHeader(name, value string, replace bool) error {
	if e.sent {
		return runtimeError("EmitHeader", "headers already sent", nil)
	}
	if replace {
		kept := e.headers[:0]
		for _, f := range e.headers {
			if !strings.EqualFold(f.name, name) {
				kept = append(kept, f)
			}
		}
		e.headers = kept
	}
	e.headers = append(e.headers, headerField{name: name, values: []string{value}})
	return nil
}

func (e *WireEmitter) EmitStatus(protocol string, code int, reason string) error {
	if e.sent {
		return runtimeError("EmitStatus", "headers already sent", nil)
	}
	e.sent = true
	if _, err := fmt.Fprintf(e.w, "HTTP/%s %d %s\r\n", protocol, code, reason); err != nil {
		return runtimeError("EmitStatus", "unable to write status line", err)
	}
	for _, f := range e.headers {
		if _, err := fmt.Fprintf(e.w, "%s: %s\r\n", f.name, f.values[0]); err != nil {
			return runtimeError("EmitStatus", "unable to write header", err)
		}
	}
	if _, err := e.w.WriteString("\r\n"); err != nil {
		return runtimeError("EmitStatus", "unable to write header terminator", err)
	}
	return nil
}

// Write sends a default "HTTP/1.1 200 OK" head first if none was emitted.
func (e *WireEmitter) Write(p []byte) (int, error) {
	if !e.sent {
		if err := e.EmitStatus("1.1", 200, StatusText(200)); err != nil {
			return 0, err
		}
	}
	return e.w.Write(p)
}

func (e *WireEmitter) Finish() error {
	if err := e.w.Flush(); err != nil {
		return runtimeError("Finish", "unable to flush output", err)
	}
	return nil
}
