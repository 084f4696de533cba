// Package ipcounter maintains, per address family, a sorted list of
// disjoint address intervals covered by added prefixes (spec.md §4.8):
// adding a prefix merges its [start, end] range into the list, and an
// overlap query reports how many addresses of a query prefix are already
// covered, plus whether the prefix is fully contained.
package ipcounter

import (
	"encoding/binary"
	"fmt"

	"github.com/bgpstream-go/mrt/internal/ipval"
)

type interval4 struct {
	start, end uint32
}

// interval6 splits the 128-bit endpoints into high/low 64-bit halves, as
// the original library's v6 host-bit arithmetic is most naturally expressed that way
// in a language without 128-bit integers — kept for fidelity to the
// original library, including its documented quirk that counting only
// tracks the high 64 bits (/64 granularity).
type interval6 struct {
	startMS, startLS uint64
	endMS, endLS     uint64
}

// Counter holds the v4 and v6 interval lists. The zero value is not ready
// to use; call New.
type Counter struct {
	v4 []interval4
	v6 []interval6
}

// New returns an empty Counter.
func New() *Counter { return &Counter{} }

// Add merges prefix's covered address range into the counter.
func (c *Counter) Add(prefix ipval.Prefix) error {
	switch prefix.Version() {
	case ipval.V4:
		start, end := v4Range(prefix)
		c.v4 = mergeInterval4(c.v4, start, end)
		return nil
	case ipval.V6:
		startMS, startLS, endMS, endLS := v6Range(prefix)
		c.v6 = mergeInterval6(c.v6, startMS, startLS, endMS, endLS)
		return nil
	default:
		return fmt.Errorf("ipcounter: unsupported address family")
	}
}

func v4Range(prefix ipval.Prefix) (start, end uint32) {
	raw := prefix.Addr().RawBytes()
	start = binary.BigEndian.Uint32(raw)
	masklen := prefix.MaskLen()
	if masklen >= 32 {
		return start, start
	}
	host := uint(32 - masklen)
	end = start | (uint32(1)<<host - 1)
	return start, end
}

func v6Range(prefix ipval.Prefix) (startMS, startLS, endMS, endLS uint64) {
	raw := prefix.Addr().RawBytes()
	addrMS := binary.BigEndian.Uint64(raw[:8])
	addrLS := binary.BigEndian.Uint64(raw[8:])
	masklen := prefix.MaskLen()

	if masklen > 64 {
		startMS, endMS = addrMS, addrMS
		host := uint(128 - masklen)
		if host >= 64 {
			startLS, endLS = 0, ^uint64(0)
		} else {
			startLS = addrLS &^ (uint64(1)<<host - 1)
			endLS = startLS | (uint64(1)<<host - 1)
		}
		return
	}

	startLS, endLS = 0, ^uint64(0)
	if masklen == 64 {
		startMS, endMS = addrMS, addrMS
		return
	}
	host := uint(64 - masklen)
	startMS = addrMS &^ (uint64(1)<<host - 1)
	endMS = startMS | (uint64(1)<<host - 1)
	return
}

// mergeInterval4 inserts [start, end] into a sorted, disjoint list of
// intervals, absorbing every interval it now overlaps.
func mergeInterval4(list []interval4, start, end uint32) []interval4 {
	i := 0
	for i < len(list) && list[i].end < start {
		i++
	}
	j := i
	for j < len(list) && list[j].start <= end {
		if list[j].start < start {
			start = list[j].start
		}
		if list[j].end > end {
			end = list[j].end
		}
		j++
	}
	merged := append([]interval4{}, list[:i]...)
	merged = append(merged, interval4{start: start, end: end})
	merged = append(merged, list[j:]...)
	return merged
}

func mergeInterval6(list []interval6, startMS, startLS, endMS, endLS uint64) []interval6 {
	before := func(a, b interval6) bool {
		return a.endMS < b.startMS || (a.endMS == b.startMS && a.endLS < b.startLS)
	}
	less := func(aMS, aLS, bMS, bLS uint64) bool {
		return aMS < bMS || (aMS == bMS && aLS < bLS)
	}
	greater := func(aMS, aLS, bMS, bLS uint64) bool {
		return aMS > bMS || (aMS == bMS && aLS > bLS)
	}

	i := 0
	for i < len(list) && before(list[i], interval6{startMS: startMS, startLS: startLS}) {
		i++
	}
	j := i
	for j < len(list) && !less(endMS, endLS, list[j].startMS, list[j].startLS) {
		if greater(startMS, startLS, list[j].startMS, list[j].startLS) {
			startMS, startLS = list[j].startMS, list[j].startLS
		}
		if greater(list[j].endMS, list[j].endLS, endMS, endLS) {
			endMS, endLS = list[j].endMS, list[j].endLS
		}
		j++
	}
	merged := append([]interval6{}, list[:i]...)
	merged = append(merged, interval6{startMS: startMS, startLS: startLS, endMS: endMS, endLS: endLS})
	merged = append(merged, list[j:]...)
	return merged
}

// Overlap returns the number of addresses within prefix that are already
// covered by the counter, and whether prefix is fully contained within a
// single covered interval (more-specific).
func (c *Counter) Overlap(prefix ipval.Prefix) (count uint64, moreSpecific bool) {
	switch prefix.Version() {
	case ipval.V4:
		start, end := v4Range(prefix)
		size := uint64(end-start) + 1
		for _, iv := range c.v4 {
			if iv.start > end {
				break
			}
			if iv.end < start {
				continue
			}
			intStart, intEnd := iv.start, iv.end
			if intStart < start {
				intStart = start
			}
			if intEnd > end {
				intEnd = end
			}
			width := uint64(intEnd-intStart) + 1
			if width == size {
				moreSpecific = true
			}
			count += width
		}
		return count, moreSpecific
	case ipval.V6:
		startMS, _, endMS, _ := v6Range(prefix)
		size := endMS - startMS + 1
		for _, iv := range c.v6 {
			if iv.startMS > endMS {
				break
			}
			if iv.endMS < startMS {
				continue
			}
			intStart, intEnd := iv.startMS, iv.endMS
			if intStart < startMS {
				intStart = startMS
			}
			if intEnd > endMS {
				intEnd = endMS
			}
			width := intEnd - intStart + 1
			if width == size {
				moreSpecific = true
			}
			count += width
		}
		return count, moreSpecific
	default:
		return 0, false
	}
}

// TotalCount sums the widths of every interval held for the given family.
// For v6, per the original library's documented quirk, widths are counted
// at /64 granularity (only the high 64 bits of each endpoint pair).
func (c *Counter) TotalCount(v ipval.Version) uint64 {
	var total uint64
	switch v {
	case ipval.V4:
		for _, iv := range c.v4 {
			total += uint64(iv.end-iv.start) + 1
		}
	case ipval.V6:
		for _, iv := range c.v6 {
			total += iv.endMS - iv.startMS + 1
		}
	}
	return total
}

// Clear empties both interval lists.
func (c *Counter) Clear() {
	c.v4 = nil
	c.v6 = nil
}
