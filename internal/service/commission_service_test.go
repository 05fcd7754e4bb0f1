package service

import (
	"testing"

	"athlos/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSplitsExactly(t *testing.T) {
	svc := NewCommissionService()

	cases := []struct {
		name       string
		gross      int64
		rateBps    int64
		commission int64
	}{
		{"twelve percent even", 10000, 1200, 1200},
		{"half rounds up", 100, 1250, 13},    // 12.5 -> 13
		{"just below half", 101, 1250, 13},   // 12.625 -> 13
		{"small amount", 1, 1200, 0},         // 0.12 -> 0
		{"one cent commission", 5, 1200, 1},  // 0.6 -> 1
		{"full rate", 999, RateScale, 999},   // 100% leaves nothing net
		{"large gross", 1_000_000_00, 875, 8_750_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := svc.Calculate(tc.gross, tc.rateBps)
			require.NoError(t, err)
			assert.Equal(t, tc.commission, b.Commission)
			assert.Equal(t, tc.gross-tc.commission, b.Net)
			assert.Equal(t, tc.gross, b.Commission+b.Net, "split must sum to gross")
		})
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	svc := NewCommissionService()

	_, err := svc.Calculate(0, 1200)
	assert.Equal(t, "INVALID_AMOUNT", domain.Reason(err))
	_, err = svc.Calculate(-500, 1200)
	assert.Equal(t, "INVALID_AMOUNT", domain.Reason(err))

	_, err = svc.Calculate(10000, 0)
	assert.Equal(t, "INVALID_RATE", domain.Reason(err))
	_, err = svc.Calculate(10000, -1)
	assert.Equal(t, "INVALID_RATE", domain.Reason(err))
	_, err = svc.Calculate(10000, RateScale+1)
	assert.Equal(t, "INVALID_RATE", domain.Reason(err))
}
