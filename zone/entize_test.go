package zone

import "testing"

func TestEntizeCreatesENTAncestors(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "a.b.c.example.com. 3600 IN A 192.0.2.1", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := z.Entize(); err != nil {
		t.Fatalf("Entize: %v", err)
	}

	for _, name := range []string{"c.example.com.", "b.c.example.com."} {
		h, ok := z.domains.Find(name)
		if !ok {
			t.Fatalf("expected ENT ancestor %s to exist", name)
		}
		if !h.Value().Status.IsENT() {
			t.Fatalf("expected %s to carry an ENT status, got %s", name, h.Value().Status)
		}
	}
}

func TestEntizeMarksDelegationAndOcclusion(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "sub.example.com. 3600 IN NS ns1.sub.example.com.", false)
	addRR(t, z, "occluded.sub.example.com. 3600 IN A 192.0.2.9", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := z.Entize(); err != nil {
		t.Fatalf("Entize: %v", err)
	}

	sub, ok := z.domains.Find("sub.example.com.")
	if !ok || sub.Value().Status != StatusNS {
		t.Fatalf("expected sub.example.com. to be a delegation, got %v ok=%v", sub, ok)
	}

	occ, ok := z.domains.Find("occluded.sub.example.com.")
	if !ok || occ.Value().Status != StatusOccluded {
		t.Fatalf("expected occluded.sub.example.com. to be OCCLUDED, got %v", occ.Value().Status)
	}
}

func TestEntizeGlueDoesNotCountTowardSubdomainAuth(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "sub.example.com. 3600 IN NS ns1.sub.example.com.", false)
	addRR(t, z, "ns1.sub.example.com. 3600 IN A 192.0.2.53", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := z.Entize(); err != nil {
		t.Fatalf("Entize: %v", err)
	}

	sub, ok := z.domains.Find("sub.example.com.")
	if !ok {
		t.Fatalf("expected sub.example.com. to exist")
	}
	if sub.Value().subdomainCount != 1 {
		t.Fatalf("expected subdomainCount 1, got %d", sub.Value().subdomainCount)
	}
	if sub.Value().subdomainAuth != 0 {
		t.Fatalf("expected glue-only child to not count toward subdomainAuth, got %d", sub.Value().subdomainAuth)
	}
}

func TestEntizeMarksAncestorsOfUnsignedDelegationENTNS(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "sub.deep.example.com. 3600 IN NS ns1.sub.deep.example.com.", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := z.Entize(); err != nil {
		t.Fatalf("Entize: %v", err)
	}

	ent, ok := z.domains.Find("deep.example.com.")
	if !ok || ent.Value().Status != StatusENTNS {
		t.Fatalf("expected deep.example.com. to be ENT_NS, got %v ok=%v", ent, ok)
	}

	apex, ok := z.domains.Find("example.com.")
	if !ok {
		t.Fatalf("expected apex to exist")
	}
	if apex.Value().subdomainAuth != 0 {
		t.Fatalf("expected an ENT_NS child to not count toward its parent's subdomainAuth, got %d", apex.Value().subdomainAuth)
	}
}

func TestEntizeKeepsENTAuthWhenAlsoServingSignedContent(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	addRR(t, z, "sub.deep.example.com. 3600 IN NS ns1.sub.deep.example.com.", false)
	addRR(t, z, "signed.deep.example.com. 3600 IN A 192.0.2.7", false)

	if err := z.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := z.Entize(); err != nil {
		t.Fatalf("Entize: %v", err)
	}

	ent, ok := z.domains.Find("deep.example.com.")
	if !ok || ent.Value().Status != StatusENTAuth {
		t.Fatalf("expected deep.example.com. to stay ENT_AUTH once it also supports signed content, got %v ok=%v", ent, ok)
	}
}
