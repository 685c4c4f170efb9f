package zone

// Denial is one link in the NSEC or NSEC3 chain: an owner name (the
// domain name itself for NSEC, or the hashed name for NSEC3), the
// denial RRset at that owner, and a back-reference to the Domain it
// speaks for. tdns's own nsec.go builds NSEC RRsets directly off a name
// slice rather than keeping a persistent chain node, since it answers
// queries rather than maintaining standing signer state; Denial exists
// here because a signer needs a durable chain to revise incrementally.
type Denial struct {
	OwnerName string
	domain    *Domain

	rrset *RRset // holds exactly one NSEC or NSEC3 RR plus its RRSIGs

	bitmapChanged bool
	nxtChanged    bool
}

func newDenial(owner string, d *Domain) *Denial {
	return &Denial{OwnerName: owner, domain: d, rrset: newRRset(owner, 0)}
}

// Domain returns the Domain this Denial node speaks for.
func (dn *Denial) Domain() *Domain { return dn.domain }

// RRset returns the NSEC/NSEC3 RRset carried at this owner.
func (dn *Denial) RRset() *RRset { return dn.rrset }
