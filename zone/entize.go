package zone

import "github.com/miekg/dns"

// Entize closes the domain tree under empty non-terminals and refreshes
// every Domain's status. It walks every Domain toward the apex, creating
// ENT_AUTH placeholders for missing ancestors (ENT_NS when the Domain
// being closed is an unsigned delegation), then runs a second pass to
// recompute status and demote ENT ancestors to ENT_GLUE beneath a
// newly-revealed occlusion.
func (z *ZoneData) Entize() error {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.entizeLocked()
}

func (z *ZoneData) entizeLocked() error {
	if z.apex == nil {
		return assertErr("Entize", z.Name, "", errNoApex)
	}
	apexName := z.apex.Name

	// Snapshot names first: closure inserts new Domains, and Walk does not
	// tolerate structural mutation of the tree it is iterating (other than
	// the advance-then-delete pattern Commit uses).
	var names []string
	z.domains.Walk(func(h Handle[*Domain]) bool {
		names = append(names, h.Value().Name)
		return true
	})

	for _, name := range names {
		if name == apexName {
			continue
		}
		z.entizeAncestorsLocked(name, apexName)
	}

	z.linkParentsLocked(apexName)
	z.updateStatusesLocked(apexName)
	z.demoteOccludedAncestorsLocked()
	return nil
}

// entizeAncestorsLocked walks from name toward apexName, creating an ENT
// Domain for every missing intermediate ancestor and stopping at the
// first ancestor that already exists. name itself carrying NS but no DS
// makes it an unsigned delegation; every ENT created along its chain to
// the first existing ancestor is then ENT_NS rather than ENT_AUTH, so
// Opt-Out can skip that whole ancestor run along with the delegation
// itself. An existing ENT ancestor already promoted to ENT_AUTH by some
// other, signed descendant stays ENT_AUTH: one signed reason to exist is
// enough to keep the whole ancestor in the chain.
func (z *ZoneData) entizeAncestorsLocked(name, apexName string) {
	entStatus := StatusENTAuth
	if h, ok := z.domains.Find(name); ok {
		d := h.Value()
		if d.HasType(dns.TypeNS) && !d.HasType(dns.TypeDS) {
			entStatus = StatusENTNS
		}
	}

	cur := name
	for cur != apexName {
		parentName := Parent(cur)
		if !IsSubdomain(apexName, parentName) && parentName != apexName {
			break
		}
		if h, ok := z.domains.Find(parentName); ok {
			if p := h.Value(); p.Status == StatusENTNS && entStatus == StatusENTAuth {
				p.Status = StatusENTAuth
			}
			break
		}
		ent := newDomain(parentName)
		ent.Status = entStatus
		if _, err := z.domains.Insert(parentName, ent); err != nil {
			// concurrent entize passes never run under the single-writer
			// model; a duplicate here means cur's chain merged with an
			// already-closed branch, which is not an error.
			break
		}
		if parentName == apexName {
			break
		}
		cur = parentName
	}
}

// linkParentsLocked wires every Domain's parent pointer and recomputes
// subdomainCount/subdomainAuth from scratch, the simplest way to keep
// those counters correct after an arbitrary batch of inserts.
func (z *ZoneData) linkParentsLocked(apexName string) {
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		d.parent = nil
		d.subdomainCount = 0
		d.subdomainAuth = 0
		return true
	})
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Name == apexName {
			return true
		}
		parentName := Parent(d.Name)
		ph, ok := z.domains.Find(parentName)
		if !ok {
			return true
		}
		p := ph.Value()
		d.parent = p
		p.subdomainCount++
		if !isGlueOnly(d) {
			p.subdomainAuth++
		}
		return true
	})
}

// isGlueOnly reports whether d carries only address glue (A/AAAA) beneath
// a delegation, contributing to subdomain_count but not subdomain_auth.
// Address data counts as glue only when the nearest non-apex NS ancestor
// names d in its NS RDATA. An ENT_NS domain exists solely to support an
// unsigned delegation below it, so it counts the same way as glue: present
// in subdomain_count, not in subdomain_auth.
func isGlueOnly(d *Domain) bool {
	if d.Status.IsENT() {
		return d.Status == StatusENTGlue || d.Status == StatusENTNS
	}
	for t := range d.rrsets {
		if t != dns.TypeA && t != dns.TypeAAAA {
			return false
		}
	}
	if len(d.rrsets) == 0 {
		return false
	}
	for p := d.parent; p != nil; p = p.parent {
		if p.HasType(dns.TypeNS) && p.Status != StatusApex {
			for _, rr := range p.RRset(dns.TypeNS).RRs {
				if ns, ok := rr.(*dns.NS); ok && Canon(ns.Ns) == d.Name {
					return true
				}
			}
			return false
		}
	}
	return false
}

// updateStatusesLocked recomputes every non-ENT Domain's status and
// marks non-apex Domains occluded beneath an ancestor DNAME, or beneath an
// ancestor NS unless they carry only glue.
func (z *ZoneData) updateStatusesLocked(apexName string) {
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		d.updateStatus(d.Name == apexName)
		return true
	})
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Name == apexName || d.Status.IsENT() {
			return true
		}
		if occluder := findOccluder(d); occluder != "" {
			d.markOccluded(occluder)
		}
		return true
	})
}

// findOccluder climbs ancestors looking for a DNAME or NS that occludes
// d, returning the occluding ancestor's name or "" if none.
func findOccluder(d *Domain) string {
	for p := d.parent; p != nil; p = p.parent {
		if p.HasType(dns.TypeDNAME) {
			return p.Name
		}
		if p.HasType(dns.TypeNS) && p.Status != StatusApex {
			if isGlueOnly(d) {
				return ""
			}
			return p.Name
		}
	}
	return ""
}

// demoteOccludedAncestorsLocked revises ENT ancestors of a newly occluded
// Domain up to the first non-ENT ancestor to ENT_GLUE: once a Domain
// becomes OCCLUDED, any purely-structural ENT ancestor above it exists
// only to support the now-occluded subtree and should reflect that.
func (z *ZoneData) demoteOccludedAncestorsLocked() {
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Status != StatusOccluded {
			return true
		}
		for p := d.parent; p != nil && p.Status.IsENT(); p = p.parent {
			p.Status = StatusENTGlue
		}
		return true
	})
}

var errNoApex = argErrString("zone has no apex domain")
