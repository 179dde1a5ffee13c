package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/domain"
)

func testConfig() SizerConfig {
	return SizerConfig{
		BaseFraction:     0.10,
		MaxExposureRatio: 0.80,
		MinOrderNotional: 10,
		SmallCashRatio:   0.10,
	}
}

func newTestSizer(t *testing.T) *Sizer {
	t.Helper()
	s, err := NewSizer(testConfig())
	require.NoError(t, err)
	return s
}

func score(total int) domain.SignalScore {
	return domain.SignalScore{Total: total}
}

func TestNewSizer_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.BaseFraction = 0
	_, err := NewSizer(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.MaxExposureRatio = 1.5
	_, err = NewSizer(cfg)
	assert.Error(t, err)
}

func TestOrderNotional_ConfidenceBands(t *testing.T) {
	s := newTestSizer(t)

	tests := []struct {
		name     string
		total    int
		expected float64
	}{
		{"below 60 keeps base fraction", 55, 1000},
		{"60-69 steps to 1.2x", 65, 1200},
		{"70-79 steps to 1.5x", 75, 1500},
		{"80 and above steps to 1.8x", 85, 1800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Plenty of free cash so only the tier drives the size.
			got, err := s.OrderNotional(10_000, 10_000, score(tt.total))
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.01)
		})
	}
}

func TestOrderNotional_NeverExceedsFreeCashBuffer(t *testing.T) {
	s := newTestSizer(t)
	for _, total := range []int{0, 55, 65, 75, 85, 100} {
		got, err := s.OrderNotional(100_000, 1500, score(total))
		if err != nil {
			continue
		}
		assert.LessOrEqual(t, got, 1500*0.995, "score %d", total)
	}
}

func TestOrderNotional_RespectsExposureHeadroom(t *testing.T) {
	s := newTestSizer(t)
	// 10k account, 7.5k already deployed: headroom is 500 under the 80% cap.
	got, err := s.OrderNotional(10_000, 2500, score(90))
	require.NoError(t, err)
	assert.InDelta(t, 500, got, 0.01)

	// Fully at the cap: rejected.
	_, err = s.OrderNotional(10_000, 2000, score(90))
	assert.ErrorIs(t, err, ErrBelowMinNotional)
}

func TestOrderNotional_SmallCashSpendsNearlyAll(t *testing.T) {
	s := newTestSizer(t)
	// Free cash is 5% of total: below the 10% small-cash ratio.
	for _, total := range []int{0, 85} {
		got, err := s.OrderNotional(10_000, 500, score(total))
		require.NoError(t, err)
		assert.InDelta(t, 500*0.995, got, 0.01, "score %d", total)
	}
}

func TestOrderNotional_RejectsBelowMinimum(t *testing.T) {
	s := newTestSizer(t)
	_, err := s.OrderNotional(100, 5, score(90))
	assert.ErrorIs(t, err, ErrBelowMinNotional)

	_, err = s.OrderNotional(0, 0, score(90))
	assert.ErrorIs(t, err, ErrBelowMinNotional)
}

func TestOrderNotional_TruncatesToCents(t *testing.T) {
	s := newTestSizer(t)
	got, err := s.OrderNotional(10_000, 333.333, score(0))
	require.NoError(t, err)
	assert.Equal(t, 331.66, got) // 333.333 * 0.995 = 331.666... -> truncated
}
