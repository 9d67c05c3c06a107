package streams

import "math/big"

// VestedAmount computes the portion of the stream's total amount unlocked at
// the given timestamp. The release is a linear interpolation between the start
// and end timestamps using truncating integer division, and the result is
// always clamped to [0, TotalAmount]. Claim and cancel settlement both call
// this function so the two paths can never round differently.
func VestedAmount(s *Stream, atTime uint64) *big.Int {
	if s == nil || s.TotalAmount == nil || s.TotalAmount.Sign() <= 0 {
		return big.NewInt(0)
	}
	if atTime <= s.StartTime {
		return big.NewInt(0)
	}
	if atTime >= s.EndTime || s.EndTime <= s.StartTime {
		return new(big.Int).Set(s.TotalAmount)
	}
	elapsed := new(big.Int).SetUint64(atTime - s.StartTime)
	duration := new(big.Int).SetUint64(s.EndTime - s.StartTime)
	vested := new(big.Int).Mul(s.TotalAmount, elapsed)
	vested.Quo(vested, duration)
	if vested.Sign() < 0 {
		return big.NewInt(0)
	}
	if vested.Cmp(s.TotalAmount) > 0 {
		return new(big.Int).Set(s.TotalAmount)
	}
	return vested
}
