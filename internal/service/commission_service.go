package service

import "athlos/internal/domain"

// RateScale is the denominator of stored commission rates: rates are integer
// ten-thousandths, so 1200 means 12.00%.
const RateScale = 10000

// CommissionBreakdown is the frozen split of one gross amount.
type CommissionBreakdown struct {
	Gross      int64 `json:"gross"`
	Commission int64 `json:"commission"`
	Net        int64 `json:"net"`
	RateBps    int64 `json:"rate_bps"`
}

// CommissionService computes the platform's cut. It is a pure calculator: the
// active rate is resolved by the caller once per request and passed in, so the
// same (gross, rate) pair always yields the same breakdown.
type CommissionService struct{}

func NewCommissionService() *CommissionService {
	return &CommissionService{}
}

// Calculate splits gross into commission and net. Commission is rounded
// half-up and net is gross minus commission, so gross == commission + net by
// construction and any rounding favors the platform, never the payee.
func (s *CommissionService) Calculate(gross, rateBps int64) (CommissionBreakdown, error) {
	if gross <= 0 {
		return CommissionBreakdown{}, domain.ErrInvalidAmount
	}
	if rateBps <= 0 || rateBps > RateScale {
		return CommissionBreakdown{}, domain.ErrInvalidRate
	}
	// Round-half-up on non-negative operands: add half the scale before
	// truncating division.
	commission := (gross*rateBps + RateScale/2) / RateScale
	return CommissionBreakdown{
		Gross:      gross,
		Commission: commission,
		Net:        gross - commission,
		RateBps:    rateBps,
	}, nil
}
