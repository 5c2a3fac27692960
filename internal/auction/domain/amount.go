package domain

import (
	"bytes"
	"math/bits"
	"strconv"
)

// Amount is an unsigned fixed-point quantity in the smallest currency unit.
// Additions are checked, refund math saturates; nothing ever wraps.
type Amount uint64

// CheckedAdd returns a+b or ErrAmountOverflow
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}
	return Amount(sum), nil
}

// SaturatingSub returns a-b, or 0 when b > a
func (a Amount) SaturatingSub(b Amount) Amount {
	if b > a {
		return 0
	}
	return a - b
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAmount parses a base-10 unsigned amount
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return Amount(v), nil
}

// MarshalText encodes the amount as a decimal string so JSON clients keep full uint64 precision
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalJSON accepts both a JSON string and a bare JSON number
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.UnmarshalText(bytes.Trim(data, `"`))
}
