package quality

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// analysisMaxDim bounds the working size for pixel statistics; metrics are
// stable under moderate downscaling and large scans are expensive to walk.
const analysisMaxDim = 1024

// Analyze computes an image quality report from pixel statistics: Laplacian
// variance for blur, mean/stddev gray for brightness and contrast, local
// residual for noise and the source dimensions for resolution.
func Analyze(img image.Image) Report {
	bounds := img.Bounds()
	srcMinDim := bounds.Dx()
	if bounds.Dy() < srcMinDim {
		srcMinDim = bounds.Dy()
	}
	if srcMinDim <= 0 {
		return Report{
			Warnings:       []string{"image is empty"},
			Recommendation: RecommendRecapture,
		}
	}

	gray := grayMatrix(img)
	mean, stddev := meanStddev(gray)
	lapVariance := laplacianVariance(gray)
	residual := noiseResidual(gray)

	report := Report{
		Blur:       blurScore(lapVariance),
		Brightness: brightnessScore(mean),
		Contrast:   contrastScore(stddev),
		Noise:      noiseScore(residual),
		Resolution: resolutionScore(srcMinDim),
	}
	report.OverallScore = report.Blur*0.35 +
		report.Brightness*0.25 +
		report.Contrast*0.15 +
		report.Noise*0.10 +
		report.Resolution*0.15

	report.Warnings = warnings(report, mean)
	switch {
	case report.OverallScore >= 70:
		report.Recommendation = RecommendProceed
	case report.OverallScore >= 50:
		report.Recommendation = RecommendWithCaution
	default:
		report.Recommendation = RecommendRecapture
	}
	return report
}

func warnings(r Report, meanGray float64) []string {
	var w []string
	if r.Blur < 50 {
		w = append(w, "image is blurry - hold the camera steady")
	}
	if r.Brightness < 70 {
		if meanGray > 150 {
			w = append(w, "image may be too bright or washed out")
		} else {
			w = append(w, "lighting is low - move to a brighter area or enable flash")
		}
	}
	if r.Contrast < 50 {
		w = append(w, "document contrast is low")
	}
	if r.Noise < 50 {
		w = append(w, "image is noisy")
	}
	if r.Resolution < 60 {
		w = append(w, "resolution is low - capture closer or with a higher resolution camera")
	}
	return w
}

// blurScore maps Laplacian variance to 0-100: sharp above 150, degrading
// linearly below.
func blurScore(variance float64) float64 {
	switch {
	case variance > 150:
		return 100
	case variance >= 70:
		return 50 + 50*(variance-70)/80
	default:
		return clampScore(variance / 140 * 100)
	}
}

// brightnessScore treats mean gray 90-150 as optimal.
func brightnessScore(mean float64) float64 {
	switch {
	case mean >= 90 && mean <= 150:
		return 100
	case mean < 90:
		return clampScore(mean / 90 * 100)
	default:
		return math.Max(30, 100-(mean-150)/2)
	}
}

func contrastScore(stddev float64) float64 {
	if stddev >= 60 {
		return 100
	}
	return clampScore(stddev / 60 * 100)
}

// noiseScore maps the mean local residual (difference from the 3x3
// neighborhood mean) to 0-100; low residual means a clean image.
func noiseScore(residual float64) float64 {
	switch {
	case residual <= 2:
		return 100
	case residual >= 20:
		return 0
	default:
		return clampScore(100 * (20 - residual) / 18)
	}
}

func resolutionScore(minDim int) float64 {
	if minDim >= 1000 {
		return 100
	}
	return clampScore(float64(minDim) / 10)
}

// grayMatrix converts the image to a grayscale intensity matrix, downscaling
// first so metrics stay cheap on large scans.
func grayMatrix(img image.Image) [][]float64 {
	if img.Bounds().Dx() > analysisMaxDim || img.Bounds().Dy() > analysisMaxDim {
		if img.Bounds().Dx() >= img.Bounds().Dy() {
			img = imaging.Resize(img, analysisMaxDim, 0, imaging.Box)
		} else {
			img = imaging.Resize(img, 0, analysisMaxDim, imaging.Box)
		}
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	rows := make([][]float64, b.Dy())
	for y := range rows {
		row := make([]float64, b.Dx())
		for x := range row {
			// grayscale image: R == G == B
			row[x] = float64(nrgba.NRGBAAt(b.Min.X+x, b.Min.Y+y).R)
		}
		rows[y] = row
	}
	return rows
}

func meanStddev(gray [][]float64) (float64, float64) {
	var sum, count float64
	for _, row := range gray {
		for _, v := range row {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	mean := sum / count
	var sqSum float64
	for _, row := range gray {
		for _, v := range row {
			d := v - mean
			sqSum += d * d
		}
	}
	return mean, math.Sqrt(sqSum / count)
}

// laplacianVariance measures sharpness with a 4-neighbor Laplacian.
func laplacianVariance(gray [][]float64) float64 {
	h := len(gray)
	if h < 3 {
		return 0
	}
	w := len(gray[0])
	if w < 3 {
		return 0
	}

	var sum, sqSum, count float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := 4*gray[y][x] - gray[y-1][x] - gray[y+1][x] - gray[y][x-1] - gray[y][x+1]
			sum += lap
			sqSum += lap * lap
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / count
	return sqSum/count - mean*mean
}

// noiseResidual is the mean absolute difference between each pixel and its
// 3x3 neighborhood mean.
func noiseResidual(gray [][]float64) float64 {
	h := len(gray)
	if h < 3 {
		return 0
	}
	w := len(gray[0])
	if w < 3 {
		return 0
	}

	var sum, count float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var neighborhood float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					neighborhood += gray[y+dy][x+dx]
				}
			}
			sum += math.Abs(gray[y][x] - neighborhood/9)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
