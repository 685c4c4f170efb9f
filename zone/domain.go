package zone

import "github.com/miekg/dns"

// DomainStatus classifies a Domain's role in the zone, computed from its
// content rather than stored independently.
type DomainStatus uint8

const (
	StatusNone DomainStatus = iota
	StatusApex
	StatusAuth
	StatusDS
	StatusNS
	StatusENTAuth
	StatusENTNS
	StatusENTGlue
	StatusOccluded
	StatusHash
)

var domainStatusToString = map[DomainStatus]string{
	StatusNone:     "none",
	StatusApex:     "apex",
	StatusAuth:     "auth",
	StatusDS:       "ds",
	StatusNS:       "ns",
	StatusENTAuth:  "ent-auth",
	StatusENTNS:    "ent-ns",
	StatusENTGlue:  "ent-glue",
	StatusOccluded: "occluded",
	StatusHash:     "hash",
}

func (s DomainStatus) String() string {
	if str, ok := domainStatusToString[s]; ok {
		return str
	}
	return "unknown"
}

// IsENT reports whether s is one of the empty-non-terminal statuses.
func (s DomainStatus) IsENT() bool {
	return s == StatusENTAuth || s == StatusENTNS || s == StatusENTGlue
}

// Domain is a named node in the zone tree: canonical name, its per-type
// RRsets, structural bookkeeping and a denial-chain back-reference.
type Domain struct {
	Name   string
	Status DomainStatus

	rrsets map[uint16]*RRset

	parent *Domain

	subdomainCount int
	subdomainAuth  int

	// nsec3Twin is the paired Domain living in the zone's nsec3_domains
	// tree, keyed by hashed name, set only when the zone is NSEC3-denied.
	nsec3Twin *Domain

	denial *Denial

	nsecBitmapChanged bool
	nsecNxtChanged    bool

	// occluded records why an occluded Domain lost authority, used by
	// examine's file-mode occlusion walk to report a cause.
	occludedBy string
}

func newDomain(name string) *Domain {
	return &Domain{Name: name, rrsets: make(map[uint16]*RRset)}
}

// rrset returns the RRset of the given type, creating it if create is
// true and it does not yet exist.
func (d *Domain) rrset(rrtype uint16, create bool) *RRset {
	rs, ok := d.rrsets[rrtype]
	if !ok {
		if !create {
			return nil
		}
		rs = newRRset(d.Name, rrtype)
		d.rrsets[rrtype] = rs
	}
	return rs
}

// RRset exposes the RRset of the given type, or nil if absent.
func (d *Domain) RRset(rrtype uint16) *RRset {
	return d.rrsets[rrtype]
}

// RRsets returns every RRset currently held, including ones with only
// pending content (not yet committed).
func (d *Domain) RRsets() map[uint16]*RRset {
	return d.rrsets
}

// HasRRsets reports whether the Domain carries any RR content, counting
// committed RRs and pending adds (see RRset.IsEmpty).
func (d *Domain) HasRRsets() bool {
	for _, rs := range d.rrsets {
		if !rs.IsEmpty() {
			return true
		}
	}
	return false
}

// HasType reports whether the Domain carries a non-empty RRset of rrtype.
func (d *Domain) HasType(rrtype uint16) bool {
	rs, ok := d.rrsets[rrtype]
	return ok && !rs.IsEmpty()
}

// pruneEmptyRRsets drops RRsets left with no RRs and no pending changes
// after a commit, keeping the rrsets map from accumulating husks.
func (d *Domain) pruneEmptyRRsets() {
	for t, rs := range d.rrsets {
		if len(rs.RRs) == 0 && !rs.HasPending() {
			delete(d.rrsets, t)
		}
	}
}

// isLeaf reports whether the Domain has no in-tree subdomains, the
// commit-time precondition for deleting an emptied Domain.
func (d *Domain) isLeaf() bool {
	return d.subdomainCount == 0
}

// updateStatus recomputes Status from current content. It never assigns
// an ENT_* status itself: ENT statuses are owned by entize, which creates
// and revises ENT domains explicitly. A Domain entized as an ENT in an
// earlier transaction but since given real RRs by a later AddRR is no
// longer empty, so it falls through to the normal content-derived switch
// below rather than keeping a stale ENT status. isApex identifies the
// zone apex.
func (d *Domain) updateStatus(isApex bool) {
	if d.Status.IsENT() && !d.HasRRsets() {
		return
	}
	switch {
	case isApex:
		d.Status = StatusApex
	case d.HasType(dns.TypeNS):
		d.Status = StatusNS
	case d.HasType(dns.TypeDS):
		d.Status = StatusDS
	default:
		d.Status = StatusAuth
	}
}

// markOccluded transitions the Domain to OCCLUDED, recording the
// occluding ancestor for diagnostics. Occlusion overrides whatever
// content-derived status updateStatus would otherwise assign.
func (d *Domain) markOccluded(byName string) {
	d.Status = StatusOccluded
	d.occludedBy = byName
}
