package domain

// IndicatorSnapshot is a named set of scalar indicator values computed from
// the trailing candles of one timeframe. Snapshots are recomputed fresh every
// evaluation cycle and replaced, never mutated.
type IndicatorSnapshot struct {
	Symbol   string
	Interval string

	Price float64 // Close of the most recent candle

	RSI    float64 // [0,100]
	StochK float64 // [0,100]
	StochD float64 // [0,100]

	BBLower    float64
	BBMid      float64
	BBUpper    float64
	BBPosition float64 // [0,1], 0 = on the lower rail
	BBWidthPct float64 // (upper-lower)/mid * 100

	MACDLine      float64
	MACDSignal    float64
	MACDHistogram float64
	MACDGolden    bool // histogram crossed from <=0 to >0 on the last step

	Decelerating      bool // decline losing speed (second difference positive)
	Accelerating      bool // decline speeding up; tightens the hard stop
	BullishDivergence bool
	BearishDivergence bool

	VolumeRatio   float64 // last volume / trailing average volume
	QuoteTurnover float64 // last candle quote-currency turnover
}
