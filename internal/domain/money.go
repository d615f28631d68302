package domain

import (
	"bytes"
	"fmt"
	"strings"
)

// Paise is a money amount in paise (1/100 rupee). The remote backend encodes
// prices inconsistently — sometimes as JSON numbers, sometimes as decimal
// strings like "1999.00" — so Paise carries a tolerant JSON codec.
type Paise int64

// ParsePaise parses a decimal rupee amount ("1999", "1999.5", "1999.00")
// into paise without going through floating point.
func ParsePaise(s string) (Paise, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty string")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var total int64
	for _, digits := range []string{whole, frac} {
		for _, c := range digits {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("parse amount %q: unexpected character %q", s, c)
			}
			total = total*10 + int64(c-'0')
		}
	}

	if neg {
		total = -total
	}
	return Paise(total), nil
}

// Rupees returns the amount formatted as a decimal rupee string, e.g. "290.00".
func (p Paise) Rupees() string {
	n := int64(p)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

func (p Paise) String() string {
	return p.Rupees()
}

// MarshalJSON encodes the amount as a plain decimal number with two places.
func (p Paise) MarshalJSON() ([]byte, error) {
	return []byte(p.Rupees()), nil
}

// UnmarshalJSON accepts both JSON numbers and decimal strings.
func (p *Paise) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	v, err := ParsePaise(string(data))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
