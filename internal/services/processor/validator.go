package processor

import (
	"bytes"
	"fmt"
	"image"
)

// ValidateImage checks the payload size and that it decodes as an image.
// It returns the decoded format name.
func (p *ImageProcessor) ValidateImage(data []byte, maxSize int64) (string, error) {
	if size := int64(len(data)); size > maxSize {
		return "", fmt.Errorf("file size %d exceeds maximum allowed size %d", size, maxSize)
	}

	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("invalid image format: %w", err)
	}

	return format, nil
}
