package common

import (
	"math/big"
	"strings"
)

const (
	EtherDecimals = 18 // 1 ether = 10^18 wei
	SOLDecimals   = 9  // SOL has 9 decimals (lamports)
)

// FormatUnits converts a base-unit amount to a display string with the given
// decimals without float precision loss. With trim, trailing fractional zeros
// are dropped the way web3 fromWei does ("1500000000000000000", 18 -> "1.5").
func FormatUnits(value *big.Int, decimals int, trim bool) string {
	s := formatWithDecimals(value, decimals)
	if trim {
		return trimFraction(s)
	}
	return s
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value *big.Int, decimals int) string {
	if value == nil {
		value = new(big.Int)
	}
	neg := value.Sign() < 0
	s := new(big.Int).Abs(value).String()

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	out := s[:pos] + "." + s[pos:]
	if decimals == 0 {
		out = s
	}
	if neg {
		out = "-" + out
	}
	return out
}

// trimFraction drops trailing fractional zeros and a dangling decimal point
func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
