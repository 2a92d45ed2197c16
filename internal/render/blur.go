package render

import (
	"image"

	"github.com/disintegration/imaging"
)

// BoxBlur blurs img with a (2*radius+1) square box kernel. Pixels outside
// the image take the value of the nearest edge pixel.
//
// imaging only ships a gaussian blur, so the box filter is done here as two
// separable passes with running sums.
func BoxBlur(img image.Image, radius int) *image.NRGBA {
	src := imaging.Clone(img)
	if radius <= 0 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
	boxPass(src.Pix, tmp.Pix, w, h, src.Stride, 4, radius)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	boxPass(tmp.Pix, dst.Pix, h, w, 4, tmp.Stride, radius)
	return dst
}

// boxPass blurs n lines of length count. Consecutive lines are lineStep bytes
// apart and consecutive pixels in a line are pixStep bytes apart.
func boxPass(src, dst []uint8, count, n, lineStep, pixStep, radius int) {
	window := 2*radius + 1
	clamp := func(i int) int { return max(0, min(i, count-1)) }
	for line := range n {
		base := line * lineStep
		var sum [4]int
		for i := -radius; i <= radius; i++ {
			off := base + clamp(i)*pixStep
			for c := range 4 {
				sum[c] += int(src[off+c])
			}
		}
		for i := range count {
			off := base + i*pixStep
			for c := range 4 {
				dst[off+c] = uint8((sum[c] + window/2) / window)
			}
			out := base + clamp(i-radius)*pixStep
			in := base + clamp(i+radius+1)*pixStep
			for c := range 4 {
				sum[c] += int(src[in+c]) - int(src[out+c])
			}
		}
	}
}
