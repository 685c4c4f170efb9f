// Package keystore provides the signing key store the zone engine's
// signing driver depends on: active DNSKEYs and a way to produce RRSIGs
// from them.
package keystore

import (
	"crypto"

	"github.com/miekg/dns"

	"github.com/dnssigner/zoneengine/zone"
)

// Key is one signing key as stored, carrying both its public DNSKEY
// record and the crypto.Signer used to produce signatures. Zone-name and
// state columns belong to the store implementation, not this value.
type Key struct {
	Locator   string
	Flags     uint16
	Algorithm uint8
	DNSKEY    dns.DNSKEY
	Signer    crypto.Signer
}

func (k Key) toZoneKey() zone.SigningKey {
	return zone.SigningKey{
		Locator:   k.Locator,
		Flags:     k.Flags,
		Algorithm: k.Algorithm,
		DNSKEY:    k.DNSKEY,
	}
}

// signingContext implements zone.SigningContext against a fixed key set
// captured at CreateContext time, shared by both store implementations.
type signingContext struct {
	keys map[string]Key
}

func (c *signingContext) Sign(rrsig *dns.RRSIG, rrs []dns.RR, locator string) error {
	k, ok := c.keys[locator]
	if !ok {
		return errUnknownLocator
	}
	return rrsig.Sign(k.Signer, rrs)
}

func (c *signingContext) Destroy() error {
	c.keys = nil
	return nil
}

type keystoreError string

func (e keystoreError) Error() string { return string(e) }

const (
	errUnknownLocator   = keystoreError("keystore: unknown key locator")
	errNoActiveKeysZone = keystoreError("keystore: zone has no active keys")
)

var (
	_ zone.KeyStore       = (*MemStore)(nil)
	_ zone.KeyStore       = (*SQLiteStore)(nil)
	_ zone.SigningContext = (*signingContext)(nil)
)
