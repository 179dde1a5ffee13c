package indicators

const accelBlockSize = 3

// AccelerationResult holds the first and second difference of three
// consecutive 3-candle block averages. FirstDiff < 0 means the price is
// still falling between the two most recent blocks; SecondDiff > 0 means the
// fall is losing speed.
type AccelerationResult struct {
	FirstDiff  float64
	SecondDiff float64
}

// Acceleration computes the second difference of three consecutive 3-candle
// block averages over the last nine closes. Returns a neutral zero result
// when fewer than nine samples are supplied.
func Acceleration(closes []float64) AccelerationResult {
	if len(closes) < 3*accelBlockSize {
		return AccelerationResult{}
	}
	tail := closes[len(closes)-3*accelBlockSize:]
	blockAvg := func(block []float64) float64 {
		return (block[0] + block[1] + block[2]) / accelBlockSize
	}
	oldest := blockAvg(tail[0:3])
	middle := blockAvg(tail[3:6])
	newest := blockAvg(tail[6:9])

	d0 := middle - oldest
	d1 := newest - middle
	return AccelerationResult{
		FirstDiff:  d1,
		SecondDiff: d1 - d0,
	}
}

// DeceleratingDecline reports whether a decline is decelerating: the latest
// block-to-block move is still negative while the second difference exceeds
// the given positive threshold.
func (a AccelerationResult) DeceleratingDecline(threshold float64) bool {
	return a.FirstDiff < 0 && a.SecondDiff > threshold
}

// AcceleratingDecline reports whether a decline is speeding up: the latest
// move is negative and the second difference is below the given negative
// threshold. Used to tighten the hard stop on fast drops.
func (a AccelerationResult) AcceleratingDecline(threshold float64) bool {
	return a.FirstDiff < 0 && a.SecondDiff < threshold
}
