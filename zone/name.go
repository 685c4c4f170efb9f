package zone

import (
	"strings"

	"github.com/miekg/dns"
)

// Canon returns the fully-qualified, lowercased form of name, via
// dns.CanonicalName, for use as a map or tree key.
func Canon(name string) string {
	return dns.CanonicalName(name)
}

// Compare implements the RFC 4034 §6.1 canonical ordering: names are
// compared label by label, right to left (least significant label
// first), lowercased, and a name that is a strict prefix of another
// (fewer labels) sorts first. It returns <0, 0, >0 like strings.Compare.
func Compare(a, b string) int {
	la := reversedLabels(a)
	lb := reversedLabels(b)
	n := len(la)
	if len(lb) < n {
		n = len(lb)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(la[i], lb[i]); c != 0 {
			return c
		}
	}
	return len(la) - len(lb)
}

// Less reports whether a sorts strictly before b in canonical order.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

func reversedLabels(name string) []string {
	labels := dns.SplitDomainName(Canon(name))
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}

// LabelCount returns the number of labels in name, root "." counting as 0.
func LabelCount(name string) int {
	return len(dns.SplitDomainName(Canon(name)))
}

// Parent returns the immediate ancestor of name (one label shorter),
// stopping at the root. It is the "strip the leftmost label" step
// entize repeats while closing the tree.
func Parent(name string) string {
	labels := dns.SplitDomainName(Canon(name))
	if len(labels) <= 1 {
		return "."
	}
	return dns.Fqdn(strings.Join(labels[1:], "."))
}

// IsSubdomain reports whether child lies at or below parent in the name
// tree, via dns.IsSubDomain.
func IsSubdomain(parent, child string) bool {
	return dns.IsSubDomain(Canon(parent), Canon(child))
}

// IsImmediateChild reports whether child's immediate parent (one label
// shorter) is exactly parent.
func IsImmediateChild(parent, child string) bool {
	return Parent(child) == Canon(parent)
}
