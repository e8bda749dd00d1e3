package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"postify/internal/postify"
)

// ReadImageFile loads an image from disk for upload. Oversized files are
// rejected from their size alone, before any bytes are read.
func ReadImageFile(path string, maxBytes int64) (*postify.Image, error) {
	if maxBytes <= 0 {
		maxBytes = postify.MaxImageBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading image: %s is a directory", path)
	}
	if info.Size() > maxBytes {
		return nil, postify.ErrImageTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	defer f.Close()

	// The limit guards against the file growing between Stat and Read.
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, postify.ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, postify.ErrNotAnImage
	}
	return &postify.Image{Data: data, ContentType: mt.String()}, nil
}
