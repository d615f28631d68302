package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// FlexInt64 is an int64 that tolerates JSON string encoding. The PHP backend
// returns numeric ids and quantities as strings in some responses and as
// numbers in others.
type FlexInt64 int64

// MarshalJSON always encodes as a plain JSON number.
func (f FlexInt64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(f), 10)), nil
}

// UnmarshalJSON accepts both `42` and `"42"`.
func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", string(data), err)
	}
	*f = FlexInt64(v)
	return nil
}
