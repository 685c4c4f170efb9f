package zone

import "testing"

func TestCompareCanonicalOrder(t *testing.T) {
	names := []string{
		"example.com.",
		"a.example.com.",
		"yljkjljk.a.example.com.",
		"Z.a.example.com.",
		"zabc.a.example.com.",
		"z.example.com.",
		"\001.z.example.com.",
		"*.z.example.com.",
		"\200.z.example.com.",
	}
	for i := 0; i < len(names)-1; i++ {
		if !Less(names[i], names[i+1]) {
			t.Errorf("expected %q < %q", names[i], names[i+1])
		}
	}
}

func TestCompareCaseInsensitive(t *testing.T) {
	if Compare("WWW.EXAMPLE.COM.", "www.example.com.") != 0 {
		t.Errorf("expected case-insensitive equality")
	}
}

func TestParent(t *testing.T) {
	cases := map[string]string{
		"www.example.com.": "example.com.",
		"example.com.":     "com.",
		".":                ".",
	}
	for name, want := range cases {
		if got := Parent(name); got != want {
			t.Errorf("Parent(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestIsSubdomain(t *testing.T) {
	if !IsSubdomain("example.com.", "www.example.com.") {
		t.Errorf("expected www.example.com. to be a subdomain of example.com.")
	}
	if IsSubdomain("example.com.", "example.net.") {
		t.Errorf("did not expect example.net. to be a subdomain of example.com.")
	}
}

func TestIsImmediateChild(t *testing.T) {
	if !IsImmediateChild("example.com.", "www.example.com.") {
		t.Errorf("expected immediate child")
	}
	if IsImmediateChild("example.com.", "a.b.example.com.") {
		t.Errorf("did not expect a.b.example.com. to be an immediate child of example.com.")
	}
}
