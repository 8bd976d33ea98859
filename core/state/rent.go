package state

// AccountStorageOverhead is the number of bytes charged for every account on
// top of its data.
const AccountStorageOverhead = 128

// Rent describes the rent-exempt floor: an account must hold
// (overhead + data length) * LamportsPerByteYear * ExemptionYears lamports to
// remain allocated.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

// DefaultRent returns the schedule used when none is configured.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionYears: 2}
}

// MinimumBalance returns the rent-exempt floor for an account with dataLen
// bytes of data.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	if dataLen < 0 {
		dataLen = 0
	}
	return (AccountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionYears
}

// IsExempt reports whether lamports covers the floor for dataLen bytes.
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
