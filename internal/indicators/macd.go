package indicators

const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// MACDResult holds the MACD line (EMA12-EMA26), its EMA9 signal line, the
// histogram, and whether the histogram crossed from <=0 to >0 on the last step.
type MACDResult struct {
	Line      float64
	Signal    float64
	Histogram float64
	Golden    bool
}

// MACD computes the Moving Average Convergence Divergence over the series.
// Returns a neutral zero result when fewer than 35 samples are supplied
// (slow period plus signal period).
func MACD(closes []float64) MACDResult {
	if len(closes) < macdSlowPeriod+macdSignalPeriod {
		return MACDResult{}
	}

	fast := emaSeries(closes, macdFastPeriod)
	slow := emaSeries(closes, macdSlowPeriod)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := emaSeries(line, macdSignalPeriod)

	n := len(closes) - 1
	res := MACDResult{
		Line:      line[n],
		Signal:    signal[n],
		Histogram: line[n] - signal[n],
	}
	prevHist := line[n-1] - signal[n-1]
	res.Golden = prevHist <= 0 && res.Histogram > 0
	return res
}
