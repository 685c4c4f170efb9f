package zone

import "github.com/miekg/dns"

// ExamineMode selects how severely Examine treats structural violations:
// wire-mode is fatal, file-mode only warns.
type ExamineMode uint8

const (
	ExamineWire ExamineMode = iota
	ExamineFile
)

// Violation records one structural rule breach found by Examine.
type Violation struct {
	Domain string
	Rule   string
	Fatal  bool
}

func (v Violation) Error() string {
	return v.Domain + ": " + v.Rule
}

// Examine validates structural rules across every Domain: CNAME-alone,
// CNAME/DNAME singleton, and zone-cut validity. In ExamineFile mode it
// additionally re-runs the ancestor occlusion check and reports any
// Domain that check finds occluded but whose Status is not OCCLUDED.
// Violations are collected and returned together; severity (Fatal)
// follows the mode: fatal for wire-received content, a warning for
// file-loaded content that a human can still correct.
func (z *ZoneData) Examine(mode ExamineMode) []Violation {
	z.mu.Lock()
	defer z.mu.Unlock()

	fatal := mode == ExamineWire
	var violations []Violation

	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		if d.Status.IsENT() || d.Status == StatusOccluded {
			return true
		}
		violations = append(violations, examineCNAMEAlone(d, fatal)...)
		violations = append(violations, examineSingletons(d, fatal)...)
		violations = append(violations, examineZoneCut(d, fatal)...)
		if mode == ExamineFile {
			violations = append(violations, examineOcclusionWalk(d, fatal)...)
		}
		return true
	})
	return violations
}

func examineCNAMEAlone(d *Domain, fatal bool) []Violation {
	if !d.HasType(dns.TypeCNAME) {
		return nil
	}
	var vs []Violation
	for t, rs := range d.rrsets {
		if rs.IsEmpty() {
			continue
		}
		if t == dns.TypeCNAME || t == dns.TypeRRSIG || t == dns.TypeNSEC || t == dns.TypeNSEC3 {
			continue
		}
		vs = append(vs, Violation{Domain: d.Name, Rule: "CNAME present alongside " + dns.TypeToString[t], Fatal: fatal})
	}
	return vs
}

func examineSingletons(d *Domain, fatal bool) []Violation {
	var vs []Violation
	if rs := d.RRset(dns.TypeCNAME); rs != nil && len(rs.RRs) > 1 {
		vs = append(vs, Violation{Domain: d.Name, Rule: "multiple CNAME RRs", Fatal: fatal})
	}
	if rs := d.RRset(dns.TypeDNAME); rs != nil && len(rs.RRs) > 1 {
		vs = append(vs, Violation{Domain: d.Name, Rule: "multiple DNAME RRs", Fatal: fatal})
	}
	return vs
}

func examineZoneCut(d *Domain, fatal bool) []Violation {
	if d.Status != StatusNS {
		return nil
	}
	allowed := map[uint16]bool{
		dns.TypeNS:    true,
		dns.TypeDS:    true,
		dns.TypeRRSIG: true,
		dns.TypeNSEC:  true,
		dns.TypeNSEC3: true,
		dns.TypeA:     true,
		dns.TypeAAAA:  true,
	}
	var vs []Violation
	for t, rs := range d.rrsets {
		if rs.IsEmpty() || allowed[t] {
			continue
		}
		vs = append(vs, Violation{Domain: d.Name, Rule: "type " + dns.TypeToString[t] + " not permitted at a delegation", Fatal: fatal})
	}
	if d.HasType(dns.TypeA) || d.HasType(dns.TypeAAAA) {
		signalled := false
		if nsset := d.RRset(dns.TypeNS); nsset != nil {
			for _, rr := range nsset.RRs {
				if ns, ok := rr.(*dns.NS); ok && Canon(ns.Ns) == d.Name {
					signalled = true
				}
			}
		}
		if !signalled {
			vs = append(vs, Violation{Domain: d.Name, Rule: "address record at delegation not signalled as glue by NS RDATA", Fatal: fatal})
		}
	}
	return vs
}

// examineOcclusionWalk re-derives occlusion by climbing ancestors with
// findOccluder, the same check Entize uses to mark Domains OCCLUDED (a
// confirmation pass in file-mode, where input order is not trusted), and
// reports a Violation when it finds an occluder but d's Status is not
// OCCLUDED rather than silently trusting a stale Status.
func examineOcclusionWalk(d *Domain, fatal bool) []Violation {
	occluder := findOccluder(d)
	if occluder != "" && d.Status != StatusOccluded {
		return []Violation{{Domain: d.Name, Rule: "should be occluded by " + occluder + " but status is " + d.Status.String(), Fatal: fatal}}
	}
	return nil
}
