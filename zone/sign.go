package zone

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/miekg/dns"
)

// Sign is the signing driver: it ensures InternalSerial leads
// OutboundSerial, opens a signing context, produces RRSIGs for every
// Domain/RRset the diff pass flags, and releases the context on every
// exit path including cancellation. ctx is checked between Domains so a
// caller can cancel a long resigning pass partway through.
func (z *ZoneData) Sign(ctx context.Context) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.Policy == nil || z.KeyStore == nil {
		return assertErr("Sign", z.Name, "", errNoSigningCollaborators)
	}

	if !SerialGT(z.InternalSerial, z.OutboundSerial) {
		if err := z.updateSerialLocked(); err != nil {
			return err
		}
	}

	keys, err := z.KeyStore.ActiveKeys(z.Name)
	if err != nil {
		return fatalErr("Sign", z.Name, "", err)
	}
	if len(keys) == 0 {
		return fatalErr("Sign", z.Name, "", errNoActiveKeys)
	}
	generation := keyGeneration(keys)

	if z.Policy.PublishCDS {
		z.publishCDSLocked(keys)
	}

	sctx, err := z.KeyStore.CreateContext(z.Name)
	if err != nil {
		return fatalErr("Sign", z.Name, "", err)
	}
	defer sctx.Destroy()

	needs := z.diffLocked(generation)

	inception := time.Now().Add(time.Duration(z.Policy.SigInceptionOffset) * time.Second)
	expiration := inception.Add(time.Duration(z.Policy.SigValidityDenial) * time.Second)
	if z.Policy.SigJitter > 0 {
		expiration = expiration.Add(jitter(z.Policy.SigJitter))
	}

	for _, need := range needs {
		if err := ctx.Err(); err != nil {
			return fatalErr("Sign", z.Name, need.Domain.Name, err)
		}
		if err := z.signOneLocked(sctx, need, keys, generation, inception, expiration); err != nil {
			return fatalErr("Sign", z.Name, need.Domain.Name, err)
		}
	}

	z.OutboundSerial = z.InternalSerial
	return nil
}

// diffLocked is Diff without re-taking z.mu, for use inside Sign which
// already holds it.
func (z *ZoneData) diffLocked(keyGeneration string) []SignatureNeed {
	var needs []SignatureNeed
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Status == StatusNone || d.Status == StatusOccluded {
			return true
		}
		for t, rs := range d.rrsets {
			if t == dns.TypeRRSIG || rs.IsEmpty() {
				continue
			}
			if rs.signatureStale || rs.signedUnderGeneration != keyGeneration {
				needs = append(needs, SignatureNeed{Domain: d, Type: t})
			}
		}
		if d.denial != nil {
			rs := d.denial.rrset
			if rs.signatureStale || rs.signedUnderGeneration != keyGeneration {
				needs = append(needs, SignatureNeed{Domain: d, Type: rs.Type})
			}
		}
		return true
	})
	return needs
}

func (z *ZoneData) signOneLocked(sctx SigningContext, need SignatureNeed, keys []SigningKey, generation string, inception, expiration time.Time) error {
	d := need.Domain
	isDenial := d.denial != nil && need.Type == d.denial.rrset.Type

	var rs *RRset
	owner := d.Name
	if isDenial {
		rs = d.denial.rrset
		owner = d.denial.OwnerName
	} else {
		rs = d.rrsets[need.Type]
	}
	rrs := rs.RRs
	if len(rrs) == 0 {
		return nil
	}

	var sigs []dns.RR
	for _, k := range keys {
		sig := &dns.RRSIG{
			Hdr: dns.RR_Header{
				Name:   owner,
				Rrtype: dns.TypeRRSIG,
				Class:  z.classOrDefault(),
				Ttl:    rrs[0].Header().Ttl,
			},
			TypeCovered: need.Type,
			Algorithm:   k.Algorithm,
			Labels:      uint8(LabelCount(owner)),
			OrigTtl:     rrs[0].Header().Ttl,
			Expiration:  uint32(expiration.Unix()),
			Inception:   uint32(inception.Unix()),
			KeyTag:      k.DNSKEY.KeyTag(),
			SignerName:  z.apex.Name,
		}
		// sig's fields above must be set before Sign is called: dns.RRSIG
		// derives the signed digest from them plus rrs, and fills
		// sig.Signature itself, handling algorithm-specific quirks (e.g.
		// ECDSA's RFC 6605 raw r||s encoding) that a hand-rolled
		// crypto.Signer.Sign call would have to reimplement.
		if err := sctx.Sign(sig, rrs, k.Locator); err != nil {
			return err
		}
		sigs = append(sigs, sig)
	}

	// An RRSIG's owner must equal the RRset it covers: a denial RRset's
	// owner is the twin's hashed name for NSEC3 (d.Name for NSEC), so its
	// RRSIGs are kept on the denial's own RRset rather than folded into
	// the original Domain's combined TypeRRSIG RRset.
	if isDenial {
		rs.RRSIGs = mergeRRSIGs(rs.RRSIGs, need.Type, sigs)
	} else {
		sigRRset := d.rrset(dns.TypeRRSIG, true)
		sigRRset.RRs = mergeRRSIGs(sigRRset.RRs, need.Type, sigs)
	}
	rs.signatureStale = false
	rs.signedUnderGeneration = generation
	return nil
}

// mergeRRSIGs replaces every existing RRSIG covering coveredType with
// fresh, leaving RRSIGs for other types in the same combined RRSIG
// RRset untouched.
func mergeRRSIGs(existing []dns.RR, coveredType uint16, fresh []dns.RR) []dns.RR {
	out := existing[:0:0]
	for _, rr := range existing {
		if sig, ok := rr.(*dns.RRSIG); ok && sig.TypeCovered == coveredType {
			continue
		}
		out = append(out, rr)
	}
	return append(out, fresh...)
}

func keyGeneration(keys []SigningKey) string {
	h := sha256.New()
	locs := make([]string, len(keys))
	for i, k := range keys {
		locs[i] = k.Locator
	}
	sort.Strings(locs)
	for _, l := range locs {
		h.Write([]byte(l))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// jitter returns a pseudo-random duration in [0, maxSeconds), spreading
// signature expirations so a fleet of zones does not re-sign in lockstep.
// Uses math/rand/v2 rather than golang.org/x/exp/rand: Go 1.22+ made the
// global generator concurrency-safe and auto-seeded, making the
// exp/rand indirection unnecessary.
func jitter(maxSeconds int64) time.Duration {
	if maxSeconds <= 0 {
		return 0
	}
	return time.Duration(randInt64N(maxSeconds)) * time.Second
}

func (z *ZoneData) publishCDSLocked(keys []SigningKey) {
	if z.apex == nil {
		return
	}
	var cds, cdnskey []dns.RR
	for _, k := range keys {
		if k.Flags&0x0001 == 0 { // SEP bit clear: not a KSK
			continue
		}
		dnskey := k.DNSKEY
		ds := dnskey.ToDS(dns.SHA256)
		if ds == nil {
			continue
		}
		cds = append(cds, &dns.CDS{
			DS: dns.DS{
				Hdr:        dns.RR_Header{Name: z.apex.Name, Rrtype: dns.TypeCDS, Class: z.classOrDefault(), Ttl: z.DefaultTTL},
				KeyTag:     ds.KeyTag,
				Algorithm:  ds.Algorithm,
				DigestType: ds.DigestType,
				Digest:     ds.Digest,
			},
		})
		ck := dns.CDNSKEY{DNSKEY: dnskey}
		ck.Hdr = dns.RR_Header{Name: z.apex.Name, Rrtype: dns.TypeCDNSKEY, Class: z.classOrDefault(), Ttl: z.DefaultTTL}
		cdnskey = append(cdnskey, &ck)
	}
	if len(cds) == 0 {
		return
	}
	rs := z.apex.rrset(dns.TypeCDS, true)
	rs.RRs = cds
	rs.signatureStale = true
	rs2 := z.apex.rrset(dns.TypeCDNSKEY, true)
	rs2.RRs = cdnskey
	rs2.signatureStale = true
}

var (
	errNoSigningCollaborators = argErrString("zone has no Policy/KeyStore assigned")
	errNoActiveKeys           = argErrString("key store returned no active keys")
)
