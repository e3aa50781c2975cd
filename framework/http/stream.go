package http

import (
	"io"
	"os"
	"strings"

	"github.com/go-errors/errors"
)

// fopen-style modes that allow reading or writing.
var (
	readModes = map[string]bool{
		"r": true, "w+": true, "r+": true, "x+": true, "c+": true,
		"rb": true, "w+b": true, "r+b": true, "x+b": true, "c+b": true,
		"rt": true, "w+t": true, "r+t": true, "x+t": true, "c+t": true,
		"a+": true,
	}
	writeModes = map[string]bool{
		"w": true, "w+": true, "rw": true, "r+": true, "x+": true, "c+": true,
		"wb": true, "w+b": true, "r+b": true, "x+b": true, "c+b": true,
		"w+t": true, "r+t": true, "x+t": true, "c+t": true,
		"a": true, "a+": true,
	}
)

const memoryMode = "w+b"

// Resource pairs a raw handle with the fopen-style mode it was opened with.
// Handle must implement io.Reader, io.Writer or both.
type Resource struct {
	Handle any
	Mode   string
}

// Stream wraps one handle with capability flags. Capabilities are checked
// before every operation; a detached or closed stream can do nothing.
type Stream struct {
	handle any
	reader io.Reader
	writer io.Writer
	seeker io.Seeker
	closer io.Closer

	mode     string
	uri      string
	readable bool
	writable bool
	seekable bool

	pos       int64
	eof       bool
	size      int64
	sizeKnown bool
	detached  bool
}

// NewStream creates a stream from source:
//
//   - *Stream is returned as is
//   - string and []byte become a new in-memory read-write stream holding them
//   - Resource is wrapped with capabilities derived from its mode
//   - io.Reader and/or io.Writer are wrapped with capabilities derived from
//     the interfaces they implement
//
// Anything else fails with *InvalidArgumentError.
func NewStream(source any) (*Stream, error) {
	switch src := source.(type) {
	case *Stream:
		if src == nil {
			return nil, invalidArgument("NewStream", "stream must not be nil")
		}
		return src, nil
	case string:
		return newMemoryStream([]byte(src)), nil
	case []byte:
		return newMemoryStream(append([]byte(nil), src...)), nil
	case Resource:
		return wrapHandle(src.Handle, src.Mode)
	case io.Reader, io.Writer:
		return wrapHandle(src, "")
	}
	return nil, invalidArgument("NewStream", "source must be a string, []byte, Resource, io.Reader, io.Writer or *Stream, got %T", source)
}

// OpenStream opens filename with an fopen-style mode ("r", "w+", "ab", ...).
func OpenStream(filename, mode string) (*Stream, error) {
	if filename == "" {
		return nil, runtimeError("OpenStream", "filename cannot be empty", nil)
	}
	flag, err := openFlag(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filename, flag, 0o666)
	if err != nil {
		return nil, runtimeError("OpenStream", "unable to open "+filename, err)
	}
	return wrapHandle(f, mode)
}

func openFlag(mode string) (int, error) {
	base := strings.NewReplacer("b", "", "t", "").Replace(mode)
	var flag int
	switch strings.TrimSuffix(base, "+") {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "x":
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	case "c":
		flag = os.O_WRONLY | os.O_CREATE
	default:
		return 0, invalidArgument("OpenStream", "invalid mode %q", mode)
	}
	if strings.HasSuffix(base, "+") {
		flag = flag&^(os.O_RDONLY|os.O_WRONLY) | os.O_RDWR
	}
	return flag, nil
}

func newMemoryStream(data []byte) *Stream {
	buf := &memoryBuffer{data: data}
	return &Stream{
		handle:    buf,
		reader:    buf,
		writer:    buf,
		seeker:    buf,
		mode:      memoryMode,
		uri:       "memory",
		readable:  true,
		writable:  true,
		seekable:  true,
		size:      int64(len(data)),
		sizeKnown: true,
	}
}

func wrapHandle(handle any, mode string) (*Stream, error) {
	s := &Stream{handle: handle, mode: mode}
	s.reader, _ = handle.(io.Reader)
	s.writer, _ = handle.(io.Writer)
	s.seeker, _ = handle.(io.Seeker)
	s.closer, _ = handle.(io.Closer)
	if s.reader == nil && s.writer == nil {
		return nil, invalidArgument("NewStream", "handle %T is neither an io.Reader nor an io.Writer", handle)
	}

	if mode == "" {
		s.readable = s.reader != nil
		s.writable = s.writer != nil
	} else {
		s.readable = s.reader != nil && readModes[mode]
		s.writable = s.writer != nil && writeModes[mode]
	}

	if s.seeker != nil {
		// pipes and sockets expose Seek but refuse it
		if pos, err := s.seeker.Seek(0, io.SeekCurrent); err == nil {
			s.seekable = true
			s.pos = pos
		}
	}
	if f, ok := handle.(*os.File); ok {
		s.uri = f.Name()
	}
	return s, nil
}

// ── Capabilities ──────────────────────────────────────────────────────────────

func (s *Stream) IsReadable() bool { return s.readable }
func (s *Stream) IsWritable() bool { return s.writable }
func (s *Stream) IsSeekable() bool { return s.seekable }

// ── I/O ───────────────────────────────────────────────────────────────────────

// Read implements io.Reader. io.EOF is returned unwrapped; any other failure
// is a *RuntimeError.
func (s *Stream) Read(p []byte) (int, error) {
	if s.detached {
		return 0, runtimeError("Read", "stream is detached", nil)
	}
	if !s.readable {
		return 0, runtimeError("Read", "cannot read from non-readable stream", nil)
	}
	n, err := s.reader.Read(p)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) {
		s.eof = true
		return n, io.EOF
	}
	if err != nil {
		return n, runtimeError("Read", "unable to read from stream", err)
	}
	return n, nil
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	if s.detached {
		return 0, runtimeError("Write", "stream is detached", nil)
	}
	if !s.writable {
		return 0, runtimeError("Write", "cannot write to a non-writable stream", nil)
	}
	n, err := s.writer.Write(p)
	s.pos += int64(n)
	s.sizeKnown = false
	if err != nil {
		return n, runtimeError("Write", "unable to write to stream", err)
	}
	return n, nil
}

// WriteString writes str.
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Seek implements io.Seeker and clears the end-of-stream flag.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.detached {
		return 0, runtimeError("Seek", "stream is detached", nil)
	}
	if !s.seekable {
		return 0, runtimeError("Seek", "stream is not seekable", nil)
	}
	pos, err := s.seeker.Seek(offset, whence)
	if err != nil {
		return 0, runtimeError("Seek", "unable to seek to stream position", err)
	}
	s.pos = pos
	s.eof = false
	return pos, nil
}

// Rewind seeks to the beginning of the stream.
func (s *Stream) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Tell returns the current position.
func (s *Stream) Tell() (int64, error) {
	if s.detached {
		return 0, runtimeError("Tell", "stream is detached", nil)
	}
	if s.seekable {
		pos, err := s.seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, runtimeError("Tell", "unable to determine stream position", err)
		}
		s.pos = pos
	}
	return s.pos, nil
}

// EOF reports whether a read has hit the end of the stream. Detached
// streams are always at EOF.
func (s *Stream) EOF() bool {
	return s.detached || s.eof
}

// Contents reads the remainder of the stream.
func (s *Stream) Contents() (string, error) {
	if s.detached {
		return "", runtimeError("Contents", "stream is detached", nil)
	}
	if !s.readable {
		return "", runtimeError("Contents", "cannot read from non-readable stream", nil)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, s); err != nil {
		return "", err
	}
	s.eof = true
	return b.String(), nil
}

// String rewinds when possible and returns the full contents, or "" on error.
func (s *Stream) String() string {
	if s.seekable {
		if err := s.Rewind(); err != nil {
			return ""
		}
	}
	contents, err := s.Contents()
	if err != nil {
		return ""
	}
	return contents
}

// Size returns the stream size and true when it can be determined.
func (s *Stream) Size() (int64, bool) {
	if s.detached {
		return 0, false
	}
	if s.sizeKnown {
		return s.size, true
	}
	switch h := s.handle.(type) {
	case interface{ Size() int64 }:
		s.size, s.sizeKnown = h.Size(), true
	case *os.File:
		if fi, err := h.Stat(); err == nil {
			s.size, s.sizeKnown = fi.Size(), true
		}
	}
	return s.size, s.sizeKnown
}

// Close closes the underlying handle, if it can be closed, and detaches it.
func (s *Stream) Close() error {
	if s.detached {
		return nil
	}
	closer := s.closer
	s.Detach()
	if closer != nil {
		if err := closer.Close(); err != nil {
			return runtimeError("Close", "unable to close stream", err)
		}
	}
	return nil
}

// Detach separates the underlying handle from the stream and returns it. The
// stream is unusable afterwards.
func (s *Stream) Detach() any {
	if s.detached {
		return nil
	}
	handle := s.handle
	*s = Stream{detached: true}
	return handle
}

// Metadata describes the stream, or returns nil once detached.
func (s *Stream) Metadata() map[string]any {
	if s.detached {
		return nil
	}
	return map[string]any{
		"mode":     s.mode,
		"seekable": s.seekable,
		"uri":      s.uri,
		"eof":      s.eof,
	}
}

// ── In-memory buffer ──────────────────────────────────────────────────────────

// memoryBuffer is a growable, seekable read-write byte buffer.
type memoryBuffer struct {
	data []byte
	off  int64
}

func (b *memoryBuffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *memoryBuffer) Write(p []byte) (int, error) {
	end := b.off + int64(len(p))
	if end > int64(len(b.data)) {
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(b.data))))
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
		}
	}
	n := copy(b.data[b.off:], p)
	b.off += int64(n)
	return n, nil
}

func (b *memoryBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	b.off = abs
	return abs, nil
}

func (b *memoryBuffer) Size() int64 { return int64(len(b.data)) }
