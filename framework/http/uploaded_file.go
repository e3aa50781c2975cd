package http

import (
	"io"
	"os"
)

// UploadError mirrors the PHP UPLOAD_ERR_* codes.
type UploadError int

const (
	UploadErrOK UploadError = iota
	UploadErrIniSize
	UploadErrFormSize
	UploadErrPartial
	UploadErrNoFile
	_
	UploadErrNoTmpDir
	UploadErrCantWrite
	UploadErrExtension
)

var uploadErrorText = map[UploadError]string{
	UploadErrOK:        "there is no error, the file uploaded with success",
	UploadErrIniSize:   "the uploaded file exceeds the maximum upload size",
	UploadErrFormSize:  "the uploaded file exceeds the form's maximum size",
	UploadErrPartial:   "the uploaded file was only partially uploaded",
	UploadErrNoFile:    "no file was uploaded",
	UploadErrNoTmpDir:  "missing a temporary folder",
	UploadErrCantWrite: "failed to write file to disk",
	UploadErrExtension: "an extension stopped the file upload",
}

func (e UploadError) String() string {
	if text, ok := uploadErrorText[e]; ok {
		return text
	}
	return "unknown upload error"
}

const moveChunkSize = 1 << 20

// UploadedFile is a file received in a multipart request. It can be moved
// to its final location exactly once.
type UploadedFile struct {
	stream          *Stream
	size            int64
	hasSize         bool
	uploadError     UploadError
	clientFilename  string
	clientMediaType string
	moved           bool
}

// NewUploadedFile wraps stream. A negative size means unknown.
func NewUploadedFile(stream *Stream, size int64, uploadError UploadError, clientFilename, clientMediaType string) *UploadedFile {
	return &UploadedFile{
		stream:          stream,
		size:            max(size, 0),
		hasSize:         size >= 0,
		uploadError:     uploadError,
		clientFilename:  clientFilename,
		clientMediaType: clientMediaType,
	}
}

// Stream returns the file contents. It fails after the file was moved or
// when the upload failed.
func (f *UploadedFile) Stream() (*Stream, error) {
	if f.uploadError != UploadErrOK {
		return nil, runtimeError("Stream", "cannot retrieve stream due to upload error: "+f.uploadError.String(), nil)
	}
	if f.moved {
		return nil, runtimeError("Stream", "cannot retrieve stream after it has already been moved", nil)
	}
	return f.stream, nil
}

// MoveTo copies the file to target and marks it moved. The source stream is
// rewound first when seekable.
func (f *UploadedFile) MoveTo(target string) error {
	if f.moved {
		return runtimeError("MoveTo", "the uploaded file has already been moved", nil)
	}
	if target == "" {
		return invalidArgument("MoveTo", "invalid path provided for move operation, must be a non-empty string")
	}
	if f.uploadError != UploadErrOK {
		return runtimeError("MoveTo", "cannot move the file due to upload error: "+f.uploadError.String(), nil)
	}

	src := f.stream
	if src.IsSeekable() {
		if err := src.Rewind(); err != nil {
			return err
		}
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return runtimeError("MoveTo", "unable to open "+target, err)
	}
	defer dst.Close()

	buf := make([]byte, moveChunkSize)
	for !src.EOF() {
		n, err := src.Read(buf)
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 {
			break
		}
		written, werr := dst.Write(buf[:n])
		if werr != nil {
			return runtimeError("MoveTo", "unable to write to "+target, werr)
		}
		if written == 0 {
			break
		}
	}
	if err := dst.Close(); err != nil {
		return runtimeError("MoveTo", "unable to close "+target, err)
	}

	f.moved = true
	return nil
}

// Size returns the size reported by the client and true, or false when unknown.
func (f *UploadedFile) Size() (int64, bool) { return f.size, f.hasSize }

func (f *UploadedFile) UploadError() UploadError { return f.uploadError }
func (f *UploadedFile) ClientFilename() string   { return f.clientFilename }
func (f *UploadedFile) ClientMediaType() string  { return f.clientMediaType }
func (f *UploadedFile) IsMoved() bool            { return f.moved }
