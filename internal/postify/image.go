package postify

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the largest image accepted for upload (5 MiB).
const MaxImageBytes int64 = 5 * 1024 * 1024

// validateImage checks size and content type before any network call and
// fills in ContentType from the bytes when it is missing.
func validateImage(img *Image, maxBytes int64) error {
	if int64(len(img.Data)) > maxBytes {
		return ErrImageTooLarge
	}
	detected := mimetype.Detect(img.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return ErrNotAnImage
	}
	if img.ContentType == "" {
		img.ContentType = detected.String()
	}
	return nil
}

// DataURL encodes the image inline, the form the backend stores.
func (img *Image) DataURL() string {
	ct := img.ContentType
	if ct == "" {
		ct = mimetype.Detect(img.Data).String()
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
