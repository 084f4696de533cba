package postgres

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/bgpstream-go/mrt/internal/bgpelem"
)

// ElementID computes a stable SHA256 digest identifying an element, used as
// the dedup key for the (element_id, event_time) ON CONFLICT DO NOTHING
// upsert. Grounded on internal/history/hasher.go:ComputeEventID, extended
// from a single raw-bytes hash to a composite of the element's decoded
// fields since elements have no single raw byte slice to hash.
func ElementID(e bgpelem.Element) []byte {
	h := sha256.New()
	h.Write([]byte{byte(e.Kind)})
	var tsBuf [4]byte
	binary.BigEndian.PutUint32(tsBuf[:], e.Timestamp)
	h.Write(tsBuf[:])
	h.Write([]byte(e.PeerAddr.String()))
	var asnBuf [4]byte
	binary.BigEndian.PutUint32(asnBuf[:], e.PeerASN)
	h.Write(asnBuf[:])
	h.Write([]byte(e.Prefix.String()))
	if e.ASPath != nil {
		h.Write([]byte(e.ASPath.String()))
	}
	if e.Kind == bgpelem.PeerState {
		var stateBuf [4]byte
		binary.BigEndian.PutUint16(stateBuf[0:2], e.OldState)
		binary.BigEndian.PutUint16(stateBuf[2:4], e.NewState)
		h.Write(stateBuf[:])
	}
	sum := h.Sum(nil)
	return sum[:]
}
