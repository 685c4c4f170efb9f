package zone

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/miekg/dns"
)

const (
	backupMagic     = "; ZONEDATA-BACKUP-1"
	backupTagDname  = ";DNAME"
	backupTagDname3 = ";DNAME3"
	backupTagNsec   = ";NSEC"
	backupTagNsec3  = ";NSEC3"
)

// BackupCorruptError is returned by ReadBackup when the token stream
// deviates from the expected grammar. The caller must discard whatever
// partial state ReadBackup has already applied and re-read from the
// source zone rather than try to salvage it.
type BackupCorruptError struct {
	Line   int
	Reason string
}

func (e *BackupCorruptError) Error() string {
	return fmt.Sprintf("zone backup corrupt at line %d: %s", e.Line, e.Reason)
}

// WriteBackup serialises the committed domain tree, denial chain and
// NSEC3 twins in canonical traversal order: a file-magic first and last
// line, ;DNAME blocks per Domain, ;DNAME3 for its NSEC3 twin if any,
// ;NSEC/;NSEC3 for its denial RR.
func (z *ZoneData) WriteBackup(w io.Writer) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, backupMagic)

	var werr error
	z.domains.Walk(func(h Handle[*Domain]) bool {
		d := h.Value()
		fmt.Fprintf(bw, "%s %s %s\n", backupTagDname, d.Name, d.Status)
		if d.nsec3Twin != nil {
			fmt.Fprintf(bw, "%s %s\n", backupTagDname3, d.nsec3Twin.Name)
		}
		if d.denial != nil && len(d.denial.rrset.RRs) > 0 {
			rr := d.denial.rrset.RRs[0]
			tag := backupTagNsec
			if rr.Header().Rrtype == dns.TypeNSEC3 {
				tag = backupTagNsec3
			}
			fmt.Fprintf(bw, "%s %s\n", tag, rr.String())
		}
		return true
	})

	fmt.Fprintln(bw, backupMagic)
	if err := bw.Flush(); err != nil {
		werr = err
	}
	return werr
}

// ReadBackup restores NSEC3 twins and denial RRs from a stream previously
// written by WriteBackup, attaching each to the existing Domain its ;DNAME
// line names (looked up by name); parent pointers are left as Entize
// wired them. It requires the zone's Domains to already be staged via
// AddRR/Commit but carry no existing denial chain, since backup restores
// denial-chain data, not authoritative content.
func (z *ZoneData) ReadBackup(r io.Reader) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	lineNo := 0
	if !sc.Scan() {
		return &BackupCorruptError{Line: 0, Reason: "empty backup"}
	}
	lineNo++
	if sc.Text() != backupMagic {
		return &BackupCorruptError{Line: lineNo, Reason: "missing opening magic"}
	}

	var lastDomain *Domain
	sawClosingMagic := false

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == backupMagic {
			sawClosingMagic = true
			break
		}

		fields := strings.SplitN(line, " ", 2)
		if len(fields) < 2 {
			return &BackupCorruptError{Line: lineNo, Reason: "malformed token: " + line}
		}
		tag, rest := fields[0], fields[1]

		switch tag {
		case backupTagDname:
			name := strings.SplitN(rest, " ", 2)[0]
			h, ok := z.domains.Find(Canon(name))
			if !ok {
				return &BackupCorruptError{Line: lineNo, Reason: "unknown domain " + name}
			}
			lastDomain = h.Value()
		case backupTagDname3:
			if lastDomain == nil {
				return &BackupCorruptError{Line: lineNo, Reason: "DNAME3 without preceding DNAME"}
			}
			if z.nsec3Domains == nil {
				z.nsec3Domains = NewTree[*Domain]()
			}
			twinName := Canon(rest)
			twin := newDomain(twinName)
			twin.Status = StatusHash
			twin.nsec3Twin = lastDomain
			if _, err := z.nsec3Domains.Insert(twinName, twin); err != nil {
				return &BackupCorruptError{Line: lineNo, Reason: "duplicate nsec3 twin " + twinName}
			}
			lastDomain.nsec3Twin = twin
		case backupTagNsec, backupTagNsec3:
			if lastDomain == nil {
				return &BackupCorruptError{Line: lineNo, Reason: tag + " without preceding DNAME"}
			}
			rr, err := dns.NewRR(rest)
			if err != nil || rr == nil {
				return &BackupCorruptError{Line: lineNo, Reason: "unparsable denial RR: " + rest}
			}
			dn := newDenial(rr.Header().Name, lastDomain)
			dn.rrset.Type = rr.Header().Rrtype
			dn.rrset.RRs = []dns.RR{rr}
			if _, err := z.denials.Insert(dn.OwnerName, dn); err != nil {
				return &BackupCorruptError{Line: lineNo, Reason: "duplicate denial owner " + dn.OwnerName}
			}
			lastDomain.denial = dn
		default:
			return &BackupCorruptError{Line: lineNo, Reason: "unrecognised token: " + tag}
		}
	}
	if err := sc.Err(); err != nil {
		return &BackupCorruptError{Line: lineNo, Reason: err.Error()}
	}
	if !sawClosingMagic {
		return &BackupCorruptError{Line: lineNo, Reason: "missing closing magic"}
	}
	return nil
}
