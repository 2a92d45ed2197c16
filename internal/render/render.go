// Package render turns a downloaded photo into a frame for a fixed-size
// display: orientation correction, aspect-preserving resize and optional
// blurred padding.
package render

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// PadBlurRadius is the box blur radius applied to the padding background.
const PadBlurRadius = 8

// Options describe the target canvas.
type Options struct {
	Width  int
	Height int
	// Pad fills the unused canvas with a blurred, cropped copy of the photo.
	Pad bool
}

// Validate checks the target dimensions are usable.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid target dimensions %dx%d", o.Width, o.Height)
	}
	return nil
}

// DecodeError is returned when the downloaded bytes are not a supported image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decoding image: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode decodes an image and applies its EXIF orientation so the pixels are
// right-side-up. The orientation tag is not carried on the returned image.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}

// Render produces the frame for img. Without padding the result fits within
// the target, with padding it is exactly the target size.
func Render(img image.Image, opts Options) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	if opts.Pad {
		return Pad(img, opts.Width, opts.Height), nil
	}
	return Contain(img, opts.Width, opts.Height), nil
}

// ContainSize returns the largest size with the aspect ratio of src that fits
// within width x height. Both dimensions are at least 1.
func ContainSize(src image.Point, width, height int) image.Point {
	srcRatio := float64(src.X) / float64(src.Y)
	dstRatio := float64(width) / float64(height)
	size := image.Pt(width, height)
	switch {
	case srcRatio > dstRatio:
		size.Y = int(math.Round(float64(src.Y) / float64(src.X) * float64(width)))
	case srcRatio < dstRatio:
		size.X = int(math.Round(float64(src.X) / float64(src.Y) * float64(height)))
	}
	size.X = max(1, min(size.X, width))
	size.Y = max(1, min(size.Y, height))
	return size
}

// Contain scales img up or down, preserving its aspect ratio, so that it fits
// entirely within width x height.
func Contain(img image.Image, width, height int) *image.NRGBA {
	size := ContainSize(img.Bounds().Size(), width, height)
	return imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
}

// Cover scales img so it fills width x height and crops the overflowing axis
// around the center.
func Cover(img image.Image, width, height int) *image.NRGBA {
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
}

// Pad composites the contained image centered over a blurred cover of the
// same photo. The result is exactly width x height.
func Pad(img image.Image, width, height int) *image.NRGBA {
	bkg := BoxBlur(Cover(img, width, height), PadBlurRadius)
	fg := Contain(img, width, height)
	pos := image.Pt((width-fg.Bounds().Dx())/2, (height-fg.Bounds().Dy())/2)
	return imaging.Paste(bkg, fg, pos)
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
