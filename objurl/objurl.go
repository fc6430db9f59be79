// Package objurl converts encoded image bytes into handles a presenter can
// display, in the manner of a browser's object URLs.
package objurl

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/soypat/stlview"
)

// Converter turns bytes of the given media type into a displayable handle.
type Converter interface {
	ToHandle(b []byte, mime stlview.MimeType) (string, error)
}

var errEmpty = errors.New("no bytes to convert")

// DataURL converts bytes into self contained base64 "data:" URLs.
type DataURL struct{}

var _ Converter = DataURL{}

// ToHandle returns b as a base64 data URL of the given media type.
func (DataURL) ToHandle(b []byte, mime stlview.MimeType) (string, error) {
	if len(b) == 0 {
		return "", errEmpty
	}
	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(mime.String()) + base64.StdEncoding.EncodedLen(len(b)))
	sb.WriteString("data:")
	sb.WriteString(mime.String())
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(b))
	return sb.String(), nil
}

// DecodeDataURL returns the media type and bytes held by a base64 data URL.
func DecodeDataURL(url string) (mime string, b []byte, err error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, errors.New("missing data: scheme")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, errors.New("data URL is not base64 encoded")
	}
	b, err = base64.StdEncoding.DecodeString(payload)
	return mime, b, err
}

// Store keeps converted bytes in memory and hands out opaque
// "blob:stlview/<uuid>" handles. Handles stay valid until revoked.
// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	blobs map[string]blob
}

type blob struct {
	mime stlview.MimeType
	data []byte
}

const storePrefix = "blob:stlview/"

var _ Converter = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]blob)}
}

// ToHandle stores a copy of b and returns its handle.
func (s *Store) ToHandle(b []byte, mime stlview.MimeType) (string, error) {
	if len(b) == 0 {
		return "", errEmpty
	}
	handle := storePrefix + uuid.NewString()
	s.mu.Lock()
	s.blobs[handle] = blob{mime: mime, data: append([]byte(nil), b...)}
	s.mu.Unlock()
	return handle, nil
}

// Get returns the bytes and media type stored under handle.
func (s *Store) Get(handle string) ([]byte, stlview.MimeType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bl, ok := s.blobs[handle]
	return bl.data, bl.mime, ok
}

// Revoke releases the bytes held by handle. Revoking an unknown handle is a no-op.
func (s *Store) Revoke(handle string) {
	s.mu.Lock()
	delete(s.blobs, handle)
	s.mu.Unlock()
}

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
