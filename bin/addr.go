// Package bin provides a uniform representation of binary executable
// addresses and loaded memory regions.
package bin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Address is a virtual address that may be specified in hexadecimal
// notation. It implements the flag.Value and encoding.TextUnmarshaler
// interfaces.
//
// Two flavors of Address exist conceptually: original (as recorded in the
// object file) and effective (after a per-format slide). objtrans only ever
// stores effective addresses; format shims are responsible for the
// translation at the boundary.
type Address uint64

// Address size in number of bits.
const addrSize = 64

// String returns the hexadecimal string representation of v.
func (v Address) String() string {
	return fmt.Sprintf("0x%016X", uint64(v))
}

// Set sets v to the numeric value represented by s.
func (v *Address) Set(s string) error {
	x, err := parseUint64(s)
	if err != nil {
		return errors.WithStack(err)
	}
	*v = Address(x)
	return nil
}

// UnmarshalText unmarshals the text into v.
func (v *Address) UnmarshalText(text []byte) error {
	return v.Set(string(text))
}

// MarshalText returns the textual representation of v.
func (v Address) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalJSON unmarshals the given quoted string representation of the
// address.
func (v *Address) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.WithStack(err)
	}
	return v.Set(s)
}

// Addrs implements the sort.Interface, sorting addresses in ascending order.
type Addrs []Address

func (as Addrs) Len() int           { return len(as) }
func (as Addrs) Swap(i, j int)      { as[i], as[j] = as[j], as[i] }
func (as Addrs) Less(i, j int) bool { return as[i] < as[j] }

// Dedup returns a sorted copy of as with duplicate addresses removed.
func (as Addrs) Dedup() Addrs {
	cp := make(Addrs, len(as))
	copy(cp, as)
	sort.Sort(cp)
	out := cp[:0]
	for i, a := range cp {
		if i == 0 || a != cp[i-1] {
			out = append(out, a)
		}
	}
	return out
}

// ### [ Helper functions ] ####################################################

// parseUint64 interprets the given string in base 10 or base 16 (if prefixed
// with `0x` or `0X`) and returns the corresponding value.
func parseUint64(s string) (uint64, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[len("0x"):]
		base = 16
	}
	x, err := strconv.ParseUint(s, base, addrSize)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return x, nil
}
