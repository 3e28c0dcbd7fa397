// Package settlement computes what a host is owed for a booking.
package settlement

// ComputeHostPayout returns gross minus both fees, clamped at zero.
// Amounts are whole currency units.
func ComputeHostPayout(gross, cleaningFee, serviceFee int64) int64 {
	payout := gross - cleaningFee - serviceFee
	if payout < 0 {
		return 0
	}
	return payout
}

// FeePolicy holds the platform fees deducted from every booking.
type FeePolicy struct {
	CleaningFee int64
	ServiceFee  int64
}

type Breakdown struct {
	Gross       int64 `json:"gross"`
	CleaningFee int64 `json:"cleaning_fee"`
	ServiceFee  int64 `json:"service_fee"`
	HostPayout  int64 `json:"host_payout"`
}

func (p FeePolicy) Payout(gross int64) int64 {
	return ComputeHostPayout(gross, p.CleaningFee, p.ServiceFee)
}

func (p FeePolicy) Breakdown(gross int64) Breakdown {
	return Breakdown{
		Gross:       gross,
		CleaningFee: p.CleaningFee,
		ServiceFee:  p.ServiceFee,
		HostPayout:  p.Payout(gross),
	}
}
