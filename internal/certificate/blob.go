package certificate

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
)

// Blob is a binary resource owned by one render pass. Open hands out a
// temporary reference which the caller must close.
type Blob interface {
	Open() (io.ReadCloser, error)
}

// Bytes is an in-memory Blob.
type Bytes []byte

func (b Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// File is a Blob backed by a path on disk.
type File string

func (f File) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

var errNoUpload = errors.New("upload has no file header")

// Upload adapts a multipart upload.
type Upload struct {
	Header *multipart.FileHeader
}

func (u Upload) Open() (io.ReadCloser, error) {
	if u.Header == nil {
		return nil, errNoUpload
	}
	return u.Header.Open()
}
