// Package imagestats computes per-thumbnail pixel statistics used for
// sorting: intensity and hue moments plus a Laplacian sharpness estimate.
package imagestats

import (
	"image"
	"math"
)

// Stats holds pixel statistics for one decoded image.
type Stats struct {
	IntensityMean     float64 `json:"intensityMean"`
	IntensityVariance float64 `json:"intensityVariance"`
	HueMean           float64 `json:"hueMean"`
	HueVariance       float64 `json:"hueVariance"`
	// Sharpness is the variance of the Laplacian over the luma plane. Higher
	// means more in-focus edges.
	Sharpness float64 `json:"sharpness"`
}

// Compute calculates statistics over every pixel of the image.
func Compute(img image.Image) Stats {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Stats{}
	}

	luma := make([]float64, w*h)

	var intensitySum, intensitySqSum float64
	// Hue is circular; accumulate unit vectors and derive circular moments
	var hueSinSum, hueCosSum float64
	n := float64(w * h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r16, g16, b16, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			r := float64(r16) / 65535.0
			g := float64(g16) / 65535.0
			b := float64(b16) / 65535.0

			intensity := (r + g + b) / 3.0
			intensitySum += intensity
			intensitySqSum += intensity * intensity

			luma[y*w+x] = 0.299*r + 0.587*g + 0.114*b

			hue := rgbToHue(r, g, b)
			hueSinSum += math.Sin(hue)
			hueCosSum += math.Cos(hue)
		}
	}

	intensityMean := intensitySum / n
	intensityVariance := intensitySqSum/n - intensityMean*intensityMean
	if intensityVariance < 0 {
		intensityVariance = 0
	}

	// Circular mean and variance (Mardia). Variance is in [0, 1].
	resultant := math.Hypot(hueSinSum/n, hueCosSum/n)
	hueMean := math.Atan2(hueSinSum/n, hueCosSum/n)
	if hueMean < 0 {
		hueMean += 2 * math.Pi
	}

	return Stats{
		IntensityMean:     intensityMean,
		IntensityVariance: intensityVariance,
		HueMean:           hueMean,
		HueVariance:       1 - resultant,
		Sharpness:         laplacianVariance(luma, w, h),
	}
}

// rgbToHue converts normalized RGB to a hue angle in radians [0, 2pi).
func rgbToHue(r, g, b float64) float64 {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min
	if delta == 0 {
		return 0
	}

	var hue float64
	switch max {
	case r:
		hue = math.Mod((g-b)/delta, 6)
	case g:
		hue = (b-r)/delta + 2
	default:
		hue = (r-g)/delta + 4
	}
	hue *= math.Pi / 3
	if hue < 0 {
		hue += 2 * math.Pi
	}
	return hue
}

// laplacianVariance applies the 4-neighbor Laplacian kernel to the luma
// plane and returns the variance of the response. Border pixels are skipped.
func laplacianVariance(luma []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	var sum, sqSum float64
	n := float64((w - 2) * (h - 2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := 4*luma[y*w+x] -
				luma[y*w+x-1] - luma[y*w+x+1] -
				luma[(y-1)*w+x] - luma[(y+1)*w+x]
			sum += v
			sqSum += v * v
		}
	}

	mean := sum / n
	variance := sqSum/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}
