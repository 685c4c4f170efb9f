package zone

import (
	"log"
	"sync"

	"github.com/miekg/dns"
)

// Policy is the subset of the signing-policy record the engine itself
// consumes. Config loading lives entirely outside this package (a config
// package assigns a *Policy to ZoneData at load time); ZoneData never
// reads a config file directly.
type Policy struct {
	SOASerial           SerialPolicy
	SigInceptionOffset  int64 // seconds
	SigJitter           int64 // seconds
	SigValidityDenial   int64 // seconds
	NSEC3Params         *NSEC3Params
	PublishCDS          bool
}

// NSEC3Params holds the hash algorithm, flags, iteration count, and salt
// a zone's NSEC3 chain is built with.
type NSEC3Params struct {
	Algorithm  uint8
	Flags      uint8
	Iterations uint16
	Salt       string // hex-encoded, empty for no salt
}

// OptOut reports whether the Opt-Out flag bit is set.
func (p *NSEC3Params) OptOut() bool {
	return p != nil && p.Flags&0x01 != 0
}

// KeyStore is the interface ZoneData's signing driver requires from a
// key-management collaborator. Concrete implementations (SQLite-backed
// or in-memory) live in the sibling keystore package; ZoneData depends
// only on this interface.
type KeyStore interface {
	CreateContext(zone string) (SigningContext, error)
	ActiveKeys(zone string) ([]SigningKey, error)
}

// SigningContext is a single signing session's handle, owned exclusively
// by the caller for its lifetime. Sign fills in rrsig.Signature (and any
// algorithm-dependent fields dns.RRSIG itself computes) by looking up
// locator's key and delegating to dns.RRSIG.Sign, so ECDSA's RFC 6605 raw
// r||s reformatting and similar per-algorithm quirks are handled by the
// library, not reimplemented here.
type SigningContext interface {
	Sign(rrsig *dns.RRSIG, rrs []dns.RR, locator string) error
	Destroy() error
}

// SigningKey describes one active signing key as the key store exposes
// it: enough to build a DNSKEY RRset and to address the key when
// requesting a signature.
type SigningKey struct {
	Locator   string
	Flags     uint16
	Algorithm uint8
	DNSKEY    dns.DNSKEY
}

// ZoneData is the in-memory representation of a single zone under
// construction: its Domain tree, its denial chain(s), and the serial
// bookkeeping needed to emit a new generation. It carries only the
// fields a signer's data engine needs, with no DNS-server-only state
// (listeners, notify state, XFR peers).
type ZoneData struct {
	mu sync.Mutex

	Name string

	domains      *Tree[*Domain]
	denials      *Tree[*Denial]
	nsec3Domains *Tree[*Domain] // nil unless the current denial chain is NSEC3

	apex *Domain

	DefaultTTL uint32

	InboundSerial  uint32
	InternalSerial uint32
	OutboundSerial uint32
	Initialized    bool

	Policy   *Policy
	KeyStore KeyStore
	Logger   *log.Logger

	class uint16 // dns.ClassINET unless overridden
}

// NewZoneData allocates an empty zone named name, ready to receive
// add_rr calls. class defaults to dns.ClassINET.
func NewZoneData(name string) *ZoneData {
	return &ZoneData{
		Name:       Canon(name),
		domains:    NewTree[*Domain](),
		denials:    NewTree[*Denial](),
		DefaultTTL: 3600,
		Logger:     log.Default(),
		class:      dns.ClassINET,
	}
}

// Domains exposes the ordered domain tree for read-only traversal by
// serializers and tests. Callers must not mutate Domain values from
// outside the zone's own operations.
func (z *ZoneData) Domains() *Tree[*Domain] { return z.domains }

// Denials exposes the ordered denial-chain tree.
func (z *ZoneData) Denials() *Tree[*Denial] { return z.denials }

// NSEC3Domains exposes the ordered NSEC3-twin tree. It is nil until
// Nsecify3 (or ReadBackup of NSEC3 twins) creates it, and Nsecify resets
// it to nil.
func (z *ZoneData) NSEC3Domains() *Tree[*Domain] { return z.nsec3Domains }

// Apex returns the zone's apex Domain, or nil before the first add_rr at
// the apex name.
func (z *ZoneData) Apex() *Domain { return z.apex }

func (z *ZoneData) lookupOrCreate(name string) *Domain {
	name = Canon(name)
	if h, ok := z.domains.Find(name); ok {
		return h.Value()
	}
	d := newDomain(name)
	d.parent = nil // wired by entize
	h, err := z.domains.Insert(name, d)
	if err != nil {
		// name raced into existence between Find and Insert cannot
		// happen under the single-writer-per-zone model; a duplicate
		// here is a programmer error.
		panic("zone: insert race on " + name)
	}
	return h.Value()
}

// AddRR stages rr for addition at its owner name. When atApex is true
// and the Domain did not already exist, its status is set to APEX and it
// becomes the zone's recorded apex.
// AddRR fails if rr's class disagrees with the zone's class.
func (z *ZoneData) AddRR(rr dns.RR, atApex bool) error {
	if rr == nil {
		return argErr("AddRR", z.Name, "", errNilRR)
	}
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.class == 0 {
		z.class = rr.Header().Class
	} else if rr.Header().Class != z.class {
		return argErr("AddRR", z.Name, rr.Header().Name, errClassMismatch)
	}

	name := Canon(rr.Header().Name)
	existed := false
	if _, ok := z.domains.Find(name); ok {
		existed = true
	}
	d := z.lookupOrCreate(name)
	if atApex && !existed {
		d.Status = StatusApex
		z.apex = d
	}
	if atApex && z.apex == nil {
		z.apex = d
	}
	d.rrset(rr.Header().Rrtype, true).Add(rr)
	return nil
}

// DelRR stages rr for removal from its owner's RRset of the matching
// type. An absent owner or RRset is a warning, not an error.
func (z *ZoneData) DelRR(rr dns.RR) error {
	if rr == nil {
		return argErr("DelRR", z.Name, "", errNilRR)
	}
	z.mu.Lock()
	defer z.mu.Unlock()

	name := Canon(rr.Header().Name)
	h, ok := z.domains.Find(name)
	if !ok {
		z.Logger.Printf("zone %s: del_rr: no such domain %s (ignored)", z.Name, name)
		return nil
	}
	d := h.Value()
	rs := d.rrset(rr.Header().Rrtype, false)
	if rs == nil {
		z.Logger.Printf("zone %s: del_rr: no %s RRset at %s (ignored)", z.Name, dns.TypeToString[rr.Header().Rrtype], name)
		return nil
	}
	rs.Delete(rr)
	return nil
}

// SetInboundSerial records the SOA serial observed from input, consumed
// by the next serial-update pass.
func (z *ZoneData) SetInboundSerial(serial uint32) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.InboundSerial = serial
}

var (
	errNilRR         = fatalArgError("nil RR")
	errClassMismatch = fatalArgError("RR class disagrees with zone class")
)

type argErrString string

func (e argErrString) Error() string { return string(e) }

func fatalArgError(msg string) error { return argErrString(msg) }
