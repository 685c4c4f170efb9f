package zone

import "github.com/miekg/dns"

// candidateDomains returns every Domain eligible for a denial-chain
// entry: neither NONE nor OCCLUDED, and either carrying an RRset or
// existing as an empty non-terminal. The zero-RRsets skip is meant for
// deleted-but-not-yet-pruned nodes, not for ENTs — an ENT must still get
// a denial entry so its subdomains are not wrongly implied nonexistent
// by the surrounding NSEC gap.
func (z *ZoneData) candidateDomains() []*Domain {
	var out []*Domain
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Status == StatusNone || d.Status == StatusOccluded || d.Status == StatusENTGlue {
			return true
		}
		if !d.HasRRsets() && !d.Status.IsENT() {
			return true
		}
		out = append(out, d)
		return true
	})
	return out
}

// Nsecify (re)builds the zone's NSEC denial chain from the committed
// domain tree. It discards any existing NSEC chain and nsec3_domains
// twin tree, since a zone is either NSEC- or NSEC3-denied, never both.
func (z *ZoneData) Nsecify() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.wipeDenialsLocked()
	z.nsec3Domains = nil

	candidates := z.candidateDomains()
	if len(candidates) == 0 {
		return nil
	}

	for i, d := range candidates {
		next := candidates[(i+1)%len(candidates)]
		if err := z.buildNsecLocked(d, next.Name); err != nil {
			return fatalErr("Nsecify", z.Name, d.Name, err)
		}
	}
	return nil
}

func (z *ZoneData) wipeDenialsLocked() {
	z.domains.Walk(func(h Handle[*Domain]) bool {
		h.Value().denial = nil
		return true
	})
	z.denials = NewTree[*Denial]()
}

func (z *ZoneData) buildNsecLocked(d *Domain, nextName string) error {
	bitmap := typeBitmap(d, dns.TypeNSEC)

	rr := &dns.NSEC{
		Hdr: dns.RR_Header{
			Name:   d.Name,
			Rrtype: dns.TypeNSEC,
			Class:  z.classOrDefault(),
			Ttl:    z.denialTTL(),
		},
		NextDomain: nextName,
		TypeBitMap: bitmap,
	}

	dn := newDenial(d.Name, d)
	dn.rrset.Type = dns.TypeNSEC
	dn.rrset.RRs = []dns.RR{rr}
	dn.bitmapChanged = true
	dn.nxtChanged = true

	if _, err := z.denials.Insert(d.Name, dn); err != nil {
		return err
	}
	d.denial = dn
	return nil
}

// typeBitmap returns the sorted set of RR types present at d, always
// including selfType (NSEC or NSEC3) and RRSIG: an NSEC(3) RRset always
// lists its own type and RRSIG regardless of what else is present.
func typeBitmap(d *Domain, selfType uint16) []uint16 {
	seen := map[uint16]bool{selfType: true, dns.TypeRRSIG: true}
	for t, rs := range d.rrsets {
		if rs.IsEmpty() {
			continue
		}
		seen[t] = true
	}
	types := make([]uint16, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sortUint16(types)
	return types
}

func sortUint16(s []uint16) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func (z *ZoneData) classOrDefault() uint16 {
	if z.class != 0 {
		return z.class
	}
	return dns.ClassINET
}

// denialTTL returns the TTL to stamp on NSEC/NSEC3 RRs: the zone's
// default unless the apex SOA carries an explicit MINIMUM.
func (z *ZoneData) denialTTL() uint32 {
	if z.apex != nil {
		if rs := z.apex.RRset(dns.TypeSOA); rs != nil && len(rs.RRs) > 0 {
			if soa, ok := rs.RRs[0].(*dns.SOA); ok {
				return soa.Minttl
			}
		}
	}
	return z.DefaultTTL
}
