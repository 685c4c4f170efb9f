package zone

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/miekg/dns"
)

// RRset is a set of RRs sharing owner, class and type, plus the RRSIGs
// that cover it. It stages adds/deletes in pending lists until Commit or
// Rollback resolves them.
type RRset struct {
	Name   string
	Type   uint16
	RRs    []dns.RR
	RRSIGs []dns.RR

	pendingAdd []dns.RR
	pendingDel []dns.RR

	// signatureStale is set whenever Commit changes RRs, cleared once
	// sign.go has produced fresh RRSIGs for the new content.
	signatureStale bool

	// signedUnderGeneration records the key-generation token active the
	// last time this RRset was signed, letting Diff detect a key
	// rollover even when the covered RRs themselves are unchanged.
	signedUnderGeneration string
}

func newRRset(name string, rrtype uint16) *RRset {
	return &RRset{Name: name, Type: rrtype}
}

// Add stages rr for inclusion on the next Commit.
func (rs *RRset) Add(rr dns.RR) {
	rs.pendingAdd = append(rs.pendingAdd, rr)
}

// Delete stages rr for removal on the next Commit. Deleting an RR that
// does not exist is only discovered at Commit time; the caller sees no
// error here, the same forgiving treatment ZoneData.DelRR gives an
// absent owner or RRset.
func (rs *RRset) Delete(rr dns.RR) {
	rs.pendingDel = append(rs.pendingDel, rr)
}

// HasPending reports whether Add/Delete staged anything not yet applied.
func (rs *RRset) HasPending() bool {
	return len(rs.pendingAdd) > 0 || len(rs.pendingDel) > 0
}

// IsEmpty reports whether the committed RRset carries no RRs. An RRset
// with pending adds is not considered empty even before Commit.
func (rs *RRset) IsEmpty() bool {
	return len(rs.RRs) == 0 && len(rs.pendingAdd) == 0
}

// Rollback discards pending adds/deletes without touching committed state.
func (rs *RRset) Rollback() {
	rs.pendingAdd = nil
	rs.pendingDel = nil
}

// Commit applies pending adds and deletes to RRs, canonicalizes the
// result and reports whether the committed content actually changed.
// Deletes are matched by full RDATA equality via dns.IsDuplicate.
func (rs *RRset) Commit() (changed bool, err error) {
	if !rs.HasPending() {
		return false, nil
	}
	before := rrsetSignature(rs.RRs)

	kept := rs.RRs[:0:0]
	for _, rr := range rs.RRs {
		if !containsRR(rs.pendingDel, rr) {
			kept = append(kept, rr)
		}
	}
	kept = append(kept, rs.pendingAdd...)

	sort.SliceStable(kept, func(i, j int) bool {
		return canonicalLess(kept[i], kept[j])
	})
	kept = dedupRRs(kept)

	rs.RRs = kept
	rs.pendingAdd = nil
	rs.pendingDel = nil

	changed = before != rrsetSignature(rs.RRs)
	if changed {
		rs.signatureStale = true
	}
	return changed, nil
}

func containsRR(list []dns.RR, rr dns.RR) bool {
	for _, x := range list {
		if dns.IsDuplicate(x, rr) {
			return true
		}
	}
	return false
}

func dedupRRs(rrs []dns.RR) []dns.RR {
	out := rrs[:0:0]
	for i, rr := range rrs {
		if i > 0 && dns.IsDuplicate(rrs[i-1], rr) {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func rrsetSignature(rrs []dns.RR) string {
	var b bytes.Buffer
	for _, rr := range rrs {
		b.WriteString(rr.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// rdataWire returns the wire-encoded RDATA of rr, used by canonicalLess to
// implement RFC 4034 §6.3 ordering (compare RDATA, not presentation
// form): the header is packed too, then the wire name length is
// subtracted off to isolate just the RDATA bytes.
func rdataWire(rr dns.RR) ([]byte, error) {
	buf := make([]byte, dns.Len(rr)+1)
	off, err := dns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return nil, err
	}
	full := buf[:off]

	nameBuf := make([]byte, 255)
	nameOff, err := dns.PackDomainName(rr.Header().Name, nameBuf, 0, nil, false)
	if err != nil {
		return nil, err
	}
	hdrLen := nameOff + 10 // TYPE(2) CLASS(2) TTL(4) RDLENGTH(2)
	if hdrLen > len(full) {
		return nil, fmt.Errorf("zone: malformed RR wire encoding for %s", rr.Header().Name)
	}
	return full[hdrLen:], nil
}

// canonicalLess orders two RRs of the same RRset by RFC 4034 §6.3: compare
// the canonical RDATA wire form byte by byte. Falls back to presentation
// form ordering if either RR fails to pack, which should only happen for
// malformed input already rejected upstream.
func canonicalLess(a, b dns.RR) bool {
	wa, errA := rdataWire(a)
	wb, errB := rdataWire(b)
	if errA != nil || errB != nil {
		return a.String() < b.String()
	}
	return bytes.Compare(wa, wb) < 0
}
