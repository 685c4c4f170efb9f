package zone

import (
	"testing"

	"github.com/miekg/dns"
)

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	if err != nil {
		t.Fatalf("dns.NewRR(%q): %v", s, err)
	}
	return rr
}

func TestRRsetCommitAddsAndOrdersCanonically(t *testing.T) {
	rs := newRRset("example.com.", dns.TypeA)
	rs.Add(mustRR(t, "example.com. 3600 IN A 192.0.2.2"))
	rs.Add(mustRR(t, "example.com. 3600 IN A 192.0.2.1"))

	changed, err := rs.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true on first commit")
	}
	if len(rs.RRs) != 2 {
		t.Fatalf("expected 2 RRs, got %d", len(rs.RRs))
	}
	a0 := rs.RRs[0].(*dns.A).A.String()
	a1 := rs.RRs[1].(*dns.A).A.String()
	if a0 != "192.0.2.1" || a1 != "192.0.2.2" {
		t.Fatalf("expected canonical rdata order, got %s then %s", a0, a1)
	}
}

func TestRRsetCommitNoopWhenNothingPending(t *testing.T) {
	rs := newRRset("example.com.", dns.TypeA)
	changed, err := rs.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if changed {
		t.Fatalf("expected changed=false with nothing pending")
	}
}

func TestRRsetCommitDeleteAndDedup(t *testing.T) {
	rs := newRRset("example.com.", dns.TypeA)
	rr1 := mustRR(t, "example.com. 3600 IN A 192.0.2.1")
	rs.Add(rr1)
	if _, err := rs.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rs.Add(mustRR(t, "example.com. 3600 IN A 192.0.2.1")) // duplicate
	rs.Delete(mustRR(t, "example.com. 3600 IN A 192.0.2.1"))

	changed, err := rs.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if changed {
		t.Fatalf("expected no net change: add-then-delete of the same RR nets to nothing")
	}
	if len(rs.RRs) != 1 {
		t.Fatalf("expected the committed RR to remain exactly once, got %d RRs", len(rs.RRs))
	}
}

func TestRRsetRollbackDiscardsPending(t *testing.T) {
	rs := newRRset("example.com.", dns.TypeA)
	rs.Add(mustRR(t, "example.com. 3600 IN A 192.0.2.1"))
	rs.Rollback()
	if rs.HasPending() {
		t.Fatalf("expected no pending changes after rollback")
	}
	if len(rs.RRs) != 0 {
		t.Fatalf("expected committed RRs untouched by rollback")
	}
}

func TestRRsetIsEmpty(t *testing.T) {
	rs := newRRset("example.com.", dns.TypeA)
	if !rs.IsEmpty() {
		t.Fatalf("expected fresh RRset to be empty")
	}
	rs.Add(mustRR(t, "example.com. 3600 IN A 192.0.2.1"))
	if rs.IsEmpty() {
		t.Fatalf("expected RRset with a pending add to not be empty")
	}
}
