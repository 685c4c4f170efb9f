package zone

import (
	"testing"

	"github.com/miekg/dns"
)

func addRR(t *testing.T, z *ZoneData, s string, atApex bool) {
	t.Helper()
	if err := z.AddRR(mustRR(t, s), atApex); err != nil {
		t.Fatalf("AddRR(%q): %v", s, err)
	}
}

func TestCommitPrunesEmptyRRsetsAndLeafDomains(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "leaf.example.com. 3600 IN A 192.0.2.1", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	h, ok := z.domains.Find("leaf.example.com.")
	if !ok {
		t.Fatalf("expected leaf.example.com. to exist after first commit")
	}
	rr := h.Value().RRset(dns.TypeA)
	if rr == nil || len(rr.RRs) != 1 {
		t.Fatalf("expected leaf domain to carry one A RR")
	}

	if err := z.DelRR(mustRR(t, "leaf.example.com. 3600 IN A 192.0.2.1")); err != nil {
		t.Fatalf("DelRR: %v", err)
	}
	if err := z.Commit(); err != nil {
		t.Fatalf("second Commit: %v", err)
	}

	if _, ok := z.domains.Find("leaf.example.com."); ok {
		t.Fatalf("expected leaf.example.com. to be pruned after its only RRset emptied")
	}
}

func TestCommitCascadesThroughENT(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "a.b.example.com. 3600 IN A 192.0.2.1", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := z.Entize(); err != nil {
		t.Fatalf("Entize: %v", err)
	}

	if _, ok := z.domains.Find("b.example.com."); !ok {
		t.Fatalf("expected entize to create the ENT ancestor b.example.com.")
	}

	if err := z.DelRR(mustRR(t, "a.b.example.com. 3600 IN A 192.0.2.1")); err != nil {
		t.Fatalf("DelRR: %v", err)
	}
	// A single commit pass must delete a.b.example.com. (now empty and a
	// leaf) and, in the same pass, its parent ENT b.example.com. once its
	// only subdomain is gone.
	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, ok := z.domains.Find("a.b.example.com."); ok {
		t.Fatalf("expected a.b.example.com. to be deleted")
	}
	if _, ok := z.domains.Find("b.example.com."); ok {
		t.Fatalf("expected the now-childless ENT b.example.com. to cascade-delete in the same commit")
	}
}

func TestRollbackDiscardsPendingWithoutTouchingStructure(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	addRR(t, z, "www.example.com. 3600 IN A 192.0.2.1", false)
	z.Rollback()

	h, ok := z.domains.Find("www.example.com.")
	if !ok {
		t.Fatalf("expected www.example.com. domain node to exist (created by AddRR) even though rollback discarded its pending RR")
	}
	if h.Value().HasRRsets() {
		t.Fatalf("expected no committed RRsets after rollback")
	}
}
