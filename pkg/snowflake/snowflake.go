// Package snowflake implements the platform's 64-bit timestamped identifier.
//
// A Snowflake is an opaque ID to callers but carries four extractable fields
// packed into a 64-bit integer: a millisecond timestamp relative to a custom
// epoch, a worker ID, a process ID, and a per-process increment. On the wire
// it is always a decimal string (to survive JSON's float64 precision limit),
// but this package accepts bare numbers too since some payloads emit them
// unquoted.
package snowflake

import (
	"strconv"
	"time"
)

// Epoch is the custom epoch (ms since Unix epoch) snowflakes are relative to.
const Epoch int64 = 1420070400000

// ID is a 64-bit platform identifier. The zero value is not a valid ID.
type ID uint64

// Parse parses the decimal string representation of an ID.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// String returns the decimal string representation, matching the wire format.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// MarshalJSON always emits the decimal string form, per the wire contract.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number,
// since the platform is inconsistent about quoting snowflakes in request
// bodies versus event payloads.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" || s == "" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// Timestamp extracts the creation time encoded in the high 42 bits.
func (id ID) Timestamp() time.Time {
	ms := int64(id>>22) + Epoch
	return time.UnixMilli(ms).UTC()
}

// WorkerID extracts the 5-bit worker/datacenter ID (bits 17–21).
func (id ID) WorkerID() uint8 {
	return uint8((id >> 17) & 0x1F)
}

// ProcessID extracts the 5-bit process/worker ID (bits 12–16).
func (id ID) ProcessID() uint8 {
	return uint8((id >> 12) & 0x1F)
}

// Increment extracts the 12-bit per-process sequence (bits 0–11).
func (id ID) Increment() uint16 {
	return uint16(id & 0xFFF)
}

// IsZero reports whether id is the zero value (never a valid platform ID).
func (id ID) IsZero() bool {
	return id == 0
}
