package zone

// Commit applies every pending RRset change across the zone, in reverse
// canonical order, so a child whose last RRset disappears is considered
// for deletion before its now-childless parent is visited. Domains left
// with no RRsets are pruned once they become leaves, whether or not they
// are an empty non-terminal: an ENT that just lost its last child is no
// longer serving a structural purpose either. Deleting a Domain here also
// frees its Denial node: leaving a denial dangling once its Domain is
// gone would leave a stale chain entry behind before the next full
// Nsecify(3) call, and Commit is independently callable, not always
// immediately followed by one.
func (z *ZoneData) Commit() error {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.commitLocked()
}

func (z *ZoneData) commitLocked() error {
	h, ok := z.domains.Last()
	for ok {
		d := h.Value()
		name := d.Name

		// Evaluated before commit prunes d's RRsets, so the decrement in
		// deleteDomainLocked matches what linkParentsLocked counted.
		glue := isGlueOnly(d)

		anyChanged := false
		for _, rs := range d.rrsets {
			changed, err := rs.Commit()
			if err != nil {
				return fatalErr("Commit", z.Name, name, err)
			}
			if changed {
				anyChanged = true
			}
		}
		d.pruneEmptyRRsets()
		if anyChanged {
			d.nsecBitmapChanged = true
		}

		// Advance to the predecessor before possibly deleting d itself.
		// Deleting eagerly (rather than deferring to a second pass) lets
		// an ENT that loses its last subdomain this same commit cascade
		// into deletion too, once the walk reaches it.
		prev, more := z.domains.Previous(h)

		// An ENT domain is pruned once it becomes a leaf too: being an ENT
		// already means it carries no RRs of its own, so isLeaf() is the
		// only condition still needed to know it serves no purpose.
		if !d.HasRRsets() && d.isLeaf() {
			z.deleteDomainLocked(name, glue)
		}

		if !more {
			break
		}
		h = prev
	}
	return nil
}

// deleteDomainLocked removes the Domain named name, its Denial node if
// any, and decrements the parent's subdomain counters; glue is d's
// isGlueOnly result from before its RRsets were pruned. Caller must hold
// z.mu.
func (z *ZoneData) deleteDomainLocked(name string, glue bool) {
	h, ok := z.domains.Find(name)
	if !ok {
		return
	}
	d := h.Value()

	if d.denial != nil {
		z.denials.Delete(d.denial.OwnerName)
		if z.nsec3Domains != nil && d.nsec3Twin != nil {
			z.nsec3Domains.Delete(d.nsec3Twin.Name)
		}
		d.denial = nil
	}

	if d.parent != nil {
		d.parent.subdomainCount--
		if !glue {
			d.parent.subdomainAuth--
		}
	}

	z.domains.Delete(name)
	if z.apex == d {
		z.apex = nil
	}
}

// Rollback discards every pending RRset change across the zone, leaving
// structure untouched, walking domains in canonical (forward) order.
func (z *ZoneData) Rollback() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		for _, rs := range d.rrsets {
			rs.Rollback()
		}
		return true
	})
}
