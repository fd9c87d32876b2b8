package runtime

import "math"

const (
	// AccountStorageOverhead is charged on top of every account's data length.
	AccountStorageOverhead = 128

	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
)

// Rent describes the reserve a data-carrying account must hold to be exempt
// from reclamation.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
}

// DefaultRent returns the standard parameters.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: DefaultLamportsPerByteYear, ExemptionThreshold: DefaultExemptionThreshold}
}

// MinimumBalance returns the lamports required for an account of dataLen
// bytes to be rent exempt.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	bytes := uint64(AccountStorageOverhead + dataLen)
	return uint64(math.Floor(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold))
}

// IsExempt reports whether lamports cover the reserve for dataLen bytes.
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
