package controller

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// File is a handle to a file selected by the user.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// OSFile returns a File reading path from the filesystem.
func OSFile(path string) File { return osFile(path) }

type osFile string

func (f osFile) Name() string                 { return filepath.Base(string(f)) }
func (f osFile) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// BytesFile returns a File whose content is data.
func BytesFile(name string, data []byte) File {
	return bytesFile{name: name, data: data}
}

type bytesFile struct {
	name string
	data []byte
}

func (f bytesFile) Name() string { return f.name }
func (f bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// buffer is the content of the last loaded file.
type buffer struct {
	name string
	data []byte
}

// Ingestor reads selected files in the background and keeps the content of
// the most recently completed one. Reads report back through post; the
// buffer itself is only touched by Complete, which must be called from the
// goroutine owning the Ingestor.
type Ingestor struct {
	post    func(Msg)
	maxSize int64
	pending map[uuid.UUID]string
	buf     *buffer
	logger  *zap.Logger
}

func newIngestor(post func(Msg), maxSize int64, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		post:    post,
		maxSize: maxSize,
		pending: make(map[uuid.UUID]string),
		logger:  logger,
	}
}

// Select starts one read per file and returns immediately.
func (in *Ingestor) Select(files []File) {
	for _, f := range files {
		id := uuid.New()
		name := f.Name()
		in.pending[id] = name
		in.logger.Debug("loading file", zap.String("name", name), zap.Stringer("id", id))
		go func() {
			data, err := readFile(f, in.maxSize)
			in.post(FileLoaded{ID: id, Name: name, Data: data, Err: err})
		}()
	}
}

// Complete applies a finished read. A successful read replaces the buffer
// regardless of the order reads were issued in.
func (in *Ingestor) Complete(ev FileLoaded) error {
	delete(in.pending, ev.ID)
	if ev.Err != nil {
		return &LoadError{Name: ev.Name, Err: ev.Err}
	}
	in.buf = &buffer{name: ev.Name, data: ev.Data}
	in.logger.Info("finished loading file", zap.String("name", ev.Name), zap.Int("bytes", len(ev.Data)))
	return nil
}

// Pending returns the number of reads not yet completed.
func (in *Ingestor) Pending() int { return len(in.pending) }

// Buffer returns the name and content of the last loaded file.
func (in *Ingestor) Buffer() (name string, data []byte, ok bool) {
	if in.buf == nil {
		return "", nil, false
	}
	return in.buf.name, in.buf.data, true
}

func readFile(f File, maxSize int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("file exceeds size limit of %d bytes", maxSize)
	}
	return data, nil
}
