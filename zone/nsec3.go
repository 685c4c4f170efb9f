package zone

import (
	"strings"

	"github.com/miekg/dns"
)

// NSEC3CollisionError is returned when two distinct Domains hash to the
// same NSEC3 owner name under the configured parameters.
type NSEC3CollisionError struct {
	Hash   string
	Name1  string
	Name2  string
}

func (e *NSEC3CollisionError) Error() string {
	return "nsec3 hash collision at " + e.Hash + " between " + e.Name1 + " and " + e.Name2
}

// nsec3CandidateDomains applies the same NONE/OCCLUDED/glue-ENT skip
// candidateDomains applies plus, under Opt-Out, skips NS and ENT_NS
// Domains that are unsigned delegations: a delegation carrying its own
// DS RRset is secure and must stay in the chain regardless of Opt-Out.
func (z *ZoneData) nsec3CandidateDomains(params *NSEC3Params) []*Domain {
	optOut := params.OptOut()
	var out []*Domain
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Status == StatusNone || d.Status == StatusOccluded || d.Status == StatusENTGlue {
			return true
		}
		if !d.HasRRsets() && !d.Status.IsENT() {
			return true
		}
		if optOut && (d.Status == StatusNS || d.Status == StatusENTNS) && !d.HasType(dns.TypeDS) {
			return true
		}
		out = append(out, d)
		return true
	})
	return out
}

// Nsecify3 (re)builds the zone's NSEC3 denial chain. It discards any
// prior NSEC or NSEC3 chain. ctx is checked between candidates so a long
// rebuild can be cancelled; on cancellation the zone is left mid-rebuild
// and the caller must Rollback before reuse.
func (z *ZoneData) Nsecify3(ctx contextChecker, params *NSEC3Params) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if params == nil {
		return argErr("Nsecify3", z.Name, "", errNoNSEC3Params)
	}
	if z.apex == nil {
		return assertErr("Nsecify3", z.Name, "", errNoApex)
	}

	z.wipeDenialsLocked()
	z.nsec3Domains = NewTree[*Domain]()

	candidates := z.nsec3CandidateDomains(params)

	for _, d := range candidates {
		if err := ctx.Err(); err != nil {
			return fatalErr("Nsecify3", z.Name, d.Name, err)
		}
		if _, err := z.hashTwinLocked(d, params); err != nil {
			return fatalErr("Nsecify3", z.Name, d.Name, err)
		}
	}

	// The ring's next-hashed-owner linkage must follow hashed-owner order,
	// not the original names' canonical order the candidates were
	// collected in, so nsec3_domains (keyed by hash) is walked directly
	// here rather than reusing the candidate slice.
	var buildErr error
	z.nsec3Domains.Walk(func(h Handle[*Domain]) bool {
		if err := ctx.Err(); err != nil {
			buildErr = fatalErr("Nsecify3", z.Name, h.Value().nsec3Twin.Name, err)
			return false
		}
		next := z.nsec3Domains.NextWrap(h)
		if err := z.buildNsec3Locked(h.Value(), next.Value(), params); err != nil {
			buildErr = fatalErr("Nsecify3", z.Name, h.Value().nsec3Twin.Name, err)
			return false
		}
		return true
	})
	return buildErr
}

// contextChecker is the minimal surface Nsecify3 needs from a
// context.Context, letting zone stay free of a hard context.Context
// import in its exported signature's non-cancellable call sites while
// still accepting a real context.Context (which satisfies this
// interface) from callers.
type contextChecker interface {
	Err() error
}

// hashTwinLocked computes d's NSEC3 hashed owner, creates or reuses its
// twin Domain in nsec3_domains, and wires the mutual nsec3 reference.
// Detects hash collision against a twin already owned by a different
// original Domain.
func (z *ZoneData) hashTwinLocked(d *Domain, params *NSEC3Params) (*Domain, error) {
	hash := dns.HashName(d.Name, params.Algorithm, params.Iterations, params.Salt)
	owner := strings.ToLower(hash) + "." + z.apex.Name

	if h, ok := z.nsec3Domains.Find(owner); ok {
		existing := h.Value()
		if existing.nsec3Twin != d {
			return nil, &NSEC3CollisionError{Hash: hash, Name1: existing.nsec3Twin.Name, Name2: d.Name}
		}
		return existing, nil
	}

	twin := newDomain(owner)
	twin.Status = StatusHash
	twin.nsec3Twin = d
	if _, err := z.nsec3Domains.Insert(owner, twin); err != nil {
		return nil, err
	}
	d.nsec3Twin = twin
	return twin, nil
}

func (z *ZoneData) buildNsec3Locked(twin, next *Domain, params *NSEC3Params) error {
	orig := twin.nsec3Twin
	nextHash := dns.HashName(next.nsec3Twin.Name, params.Algorithm, params.Iterations, params.Salt)

	bitmap := typeBitmapNSEC3(orig)

	rr := &dns.NSEC3{
		Hdr: dns.RR_Header{
			Name:   twin.Name,
			Rrtype: dns.TypeNSEC3,
			Class:  z.classOrDefault(),
			Ttl:    z.denialTTL(),
		},
		Hash:       params.Algorithm,
		Flags:      params.Flags,
		Iterations: params.Iterations,
		Salt:       params.Salt,
		NextDomain: nextHash,
		TypeBitMap: bitmap,
	}

	dn := newDenial(twin.Name, orig)
	dn.rrset.Type = dns.TypeNSEC3
	dn.rrset.RRs = []dns.RR{rr}
	dn.bitmapChanged = true
	dn.nxtChanged = true

	if _, err := z.denials.Insert(twin.Name, dn); err != nil {
		return err
	}
	orig.denial = dn
	return nil
}

// typeBitmapNSEC3 is typeBitmap without the self-type: NSEC3 does not
// list itself in its own bitmap (RFC 5155 §3.2), unlike NSEC's own
// RFC 4034 §4.1.1 rule that an NSEC RRset always lists NSEC itself.
func typeBitmapNSEC3(d *Domain) []uint16 {
	seen := map[uint16]bool{dns.TypeRRSIG: true}
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

var errNoNSEC3Params = argErrString("nsecify3 requires nsec3 parameters")
