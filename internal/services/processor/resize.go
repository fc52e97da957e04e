package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// resizeImage fits the image inside a maxDimension square, keeping the aspect ratio
func (p *ImageProcessor) resizeImage(img image.Image) image.Image {
	return imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
}
