package estimate

import (
	"image"
	"math"
)

// Frame is a decoded image reduced to the channels the estimator primitives
// work on: luminance, saturation and a Sobel edge map. Estimators share one
// Frame per request so the per-pixel passes run once.
type Frame struct {
	W, H int
	// Row-major, length W*H.
	Luma []float64
	Sat  []float64
	Hue  []float64

	edges []bool
	grad  []float64
}

const edgeGradientThreshold = 60.0

// NewFrame converts an image into the working representation.
func NewFrame(img image.Image) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := &Frame{
		W:    w,
		H:    h,
		Luma: make([]float64, w*h),
		Sat:  make([]float64, w*h),
		Hue:  make([]float64, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r16, g16, b16, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			bb := float64(b16 >> 8)
			i := y*w + x
			f.Luma[i] = 0.299*r + 0.587*g + 0.114*bb

			maxC := math.Max(r, math.Max(g, bb))
			minC := math.Min(r, math.Min(g, bb))
			if maxC > 0 {
				f.Sat[i] = (maxC - minC) / maxC * 255
			}
			f.Hue[i] = hueDegrees(r, g, bb, maxC, minC)
		}
	}
	return f
}

func hueDegrees(r, g, b, maxC, minC float64) float64 {
	d := maxC - minC
	if d == 0 {
		return 0
	}
	var hue float64
	switch maxC {
	case r:
		hue = math.Mod((g-b)/d, 6)
	case g:
		hue = (b-r)/d + 2
	default:
		hue = (r-g)/d + 4
	}
	hue *= 60
	if hue < 0 {
		hue += 360
	}
	return hue
}

// Gradient returns the Sobel gradient magnitude map, computing it on first use.
func (f *Frame) Gradient() []float64 {
	if f.grad != nil {
		return f.grad
	}
	g := make([]float64, f.W*f.H)
	for y := 1; y < f.H-1; y++ {
		for x := 1; x < f.W-1; x++ {
			i := y*f.W + x
			gx := -f.Luma[i-f.W-1] + f.Luma[i-f.W+1] +
				-2*f.Luma[i-1] + 2*f.Luma[i+1] +
				-f.Luma[i+f.W-1] + f.Luma[i+f.W+1]
			gy := -f.Luma[i-f.W-1] - 2*f.Luma[i-f.W] - f.Luma[i-f.W+1] +
				f.Luma[i+f.W-1] + 2*f.Luma[i+f.W] + f.Luma[i+f.W+1]
			g[i] = math.Hypot(gx, gy)
		}
	}
	f.grad = g
	return g
}

// Edges returns the thresholded edge map.
func (f *Frame) Edges() []bool {
	if f.edges != nil {
		return f.edges
	}
	grad := f.Gradient()
	e := make([]bool, len(grad))
	for i, v := range grad {
		e[i] = v >= edgeGradientThreshold
	}
	f.edges = e
	return e
}

// DarkRatio is the fraction of near-black pixels, a proxy for shadows and
// collapsed sections.
func (f *Frame) DarkRatio() float64 {
	if len(f.Luma) == 0 {
		return 0
	}
	dark := 0
	for _, l := range f.Luma {
		if l < 50 {
			dark++
		}
	}
	return float64(dark) / float64(len(f.Luma))
}

// MeanLuma is the average luminance in [0,255].
func (f *Frame) MeanLuma() float64 {
	if len(f.Luma) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range f.Luma {
		sum += l
	}
	return sum / float64(len(f.Luma))
}

// EdgeDensity is the fraction of edge pixels.
func (f *Frame) EdgeDensity() float64 {
	e := f.Edges()
	if len(e) == 0 {
		return 0
	}
	n := 0
	for _, on := range e {
		if on {
			n++
		}
	}
	return float64(n) / float64(len(e))
}

// TextureScore measures local luminance variance; damaged facades score high.
func (f *Frame) TextureScore() float64 {
	grad := f.Gradient()
	if len(grad) == 0 {
		return 0
	}
	mean := 0.0
	for _, g := range grad {
		mean += g
	}
	mean /= float64(len(grad))
	varSum := 0.0
	for _, g := range grad {
		d := g - mean
		varSum += d * d
	}
	return varSum / float64(len(grad)) / 1000
}
