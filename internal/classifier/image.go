package classifier

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDataURI is returned for anything that is not data:<mime>;base64,<payload>.
	ErrInvalidDataURI = errors.New("invalid data uri")
	// ErrUnsupportedImage rejects non-image payloads.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// Image is one decoded photo.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes a base64 data URI such as a camera capture.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("%w: payload must be base64", ErrInvalidDataURI)
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// DataURI encodes the image back into data URI form.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}
