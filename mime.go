package stlview

// MimeType is the media type of an encoded image handed to a resource
// converter.
type MimeType int

const (
	PNG  MimeType = iota // image/png
	JPEG                 // image/jpeg
)

func (m MimeType) String() string {
	switch m {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}
