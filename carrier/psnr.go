package carrier

import (
	"fmt"
	"math"
)

const peakSample = 255.0

// meanSquaredError returns false when a and b cannot be compared sample by sample.
func meanSquaredError(a, b []byte) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i, x := range a {
		d := float64(x) - float64(b[i])
		sum += d * d
	}
	return sum / float64(len(a)), true
}

// CalculatePSNR reports the peak signal-to-noise ratio in dB of stego against
// original. Unchanged samples give +Inf; buffers of different or zero length 0.
func CalculatePSNR(original, stego []byte) float64 {
	mse, ok := meanSquaredError(original, stego)
	switch {
	case !ok:
		return 0
	case mse == 0:
		return math.Inf(1)
	}
	return 10 * math.Log10(peakSample*peakSample/mse)
}

func FormatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", psnr)
}
