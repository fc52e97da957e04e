package processor

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const DefaultQuality = 85

type ImageProcessor struct {
	maxDimension int
}

// NewImageProcessor returns a processor that downscales images whose longest
// side exceeds maxDimension. A non-positive maxDimension disables resizing.
func NewImageProcessor(maxDimension int) *ImageProcessor {
	return &ImageProcessor{maxDimension: maxDimension}
}

// Normalize returns the payload to submit for critique. Images within the
// dimension limit are returned untouched.
func (p *ImageProcessor) Normalize(data []byte, contentType string) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image header: %w", err)
	}

	if !p.needsResize(cfg.Width, cfg.Height) {
		return data, contentType, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.resizeImage(img)

	outputFormat := p.getOutputFormat(format)
	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, resized, outputFormat, DefaultQuality); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	return buffer.Bytes(), "image/" + outputFormat, nil
}

func (p *ImageProcessor) needsResize(width, height int) bool {
	if p.maxDimension <= 0 {
		return false
	}
	return max(width, height) > p.maxDimension
}

// jpeg stays jpeg; everything else is re-encoded losslessly
func (p *ImageProcessor) getOutputFormat(originalFormat string) string {
	if originalFormat == "jpeg" {
		return "jpeg"
	}
	return "png"
}
