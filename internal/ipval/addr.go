// Package ipval implements the address and prefix value types shared by the
// MRT decoder and the Patricia trie: a tagged v4/v6 address union with
// canonical equality and hashing, and a (address, mask-length,
// match-mask) prefix type.
package ipval

import (
	"fmt"
	"net/netip"
)

// Version identifies the address family of an Address or Prefix.
type Version uint8

const (
	V4 Version = 4
	V6 Version = 6
)

// Address is a tagged union of an IPv4 or IPv6 address. The zero value is
// the invalid address (neither v4 nor v6); use FromNetip or ParseAddress to
// construct one.
type Address struct {
	version Version
	addr    netip.Addr // always in its canonical 4- or 16-byte form
}

// FromNetip wraps a netip.Addr, normalizing 4-in-6 mapped addresses to v4.
func FromNetip(a netip.Addr) Address {
	if a.Is4In6() {
		a = netip.AddrFrom4(a.As4())
	}
	v := V6
	if a.Is4() {
		v = V4
	}
	return Address{version: v, addr: a}
}

// ParseAddress accepts dotted-quad (v4) and RFC 5952 (v6) textual forms.
func ParseAddress(s string) (Address, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return Address{}, fmt.Errorf("ipval: invalid address %q: %w", s, err)
	}
	return FromNetip(a), nil
}

// AddrFromBytes builds an Address from raw bytes: len 4 for v4, len 16 for v6.
func AddrFromBytes(b []byte) (Address, error) {
	switch len(b) {
	case 4:
		var a4 [4]byte
		copy(a4[:], b)
		return Address{version: V4, addr: netip.AddrFrom4(a4)}, nil
	case 16:
		var a16 [16]byte
		copy(a16[:], b)
		return Address{version: V6, addr: netip.AddrFrom16(a16)}, nil
	default:
		return Address{}, fmt.Errorf("ipval: invalid address length %d", len(b))
	}
}

// IsValid reports whether the address was actually constructed.
func (a Address) IsValid() bool { return a.addr.IsValid() }

// Version returns V4 or V6.
func (a Address) Version() Version { return a.version }

// RawBytes returns the address's raw big-endian bytes (4 or 16 bytes). Used
// by the Patricia trie for per-bit branching.
func (a Address) RawBytes() []byte {
	if a.version == V4 {
		b := a.addr.As4()
		return b[:]
	}
	b := a.addr.As16()
	return b[:]
}

// Netip returns the underlying netip.Addr.
func (a Address) Netip() netip.Addr { return a.addr }

// String formats the address in its canonical textual form.
func (a Address) String() string { return a.addr.String() }

// Equal reports bitwise equality on the active variant; the version tag
// participates, so a v4 zero address never equals the v6 zero address.
func (a Address) Equal(b Address) bool {
	return a.version == b.version && a.addr == b.addr
}

// Hash folds the version tag with the address bytes so that 0.0.0.0 and ::
// hash differently.
func (a Address) Hash() uint64 {
	h := uint64(a.version) * 0x9E3779B97F4A7C15
	raw := a.RawBytes()
	for _, b := range raw {
		h ^= uint64(b)
		h *= 0x100000001B3
	}
	return avalanche64(h)
}

// MaxBits returns the address family's bit width (32 or 128).
func (a Address) MaxBits() int {
	if a.version == V4 {
		return 32
	}
	return 128
}

// Masked returns a copy of a with all bits beyond n zeroed.
func (a Address) Masked(n int) Address {
	raw := append([]byte(nil), a.RawBytes()...)
	maskBytes(raw, n)
	out, _ := AddrFromBytes(raw)
	return out
}

// Bit returns the value (0 or 1) of the i-th bit (MSB-first, 0-indexed) of
// the address's raw bytes.
func (a Address) Bit(i int) int {
	raw := a.RawBytes()
	byteIdx := i / 8
	if byteIdx >= len(raw) {
		return 0
	}
	shift := 7 - uint(i%8)
	return int((raw[byteIdx] >> shift) & 1)
}

func maskBytes(b []byte, n int) {
	if n < 0 {
		n = 0
	}
	full := n / 8
	rem := n % 8
	for i := full; i < len(b); i++ {
		if i == full && rem > 0 {
			keep := byte(0xFF << (8 - rem))
			b[i] &= keep
			continue
		}
		b[i] = 0
	}
}

func avalanche64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
