package keystore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/base64"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/miekg/dns"

	"github.com/dnssigner/zoneengine/zone"
)

// dnssecKeyStoreTable holds the columns a signer's key store needs:
// which zone a key belongs to, its DNSSEC algorithm/flags, the DNSKEY RR
// presentation form, and the PKCS#8 DER private key (base64-encoded for
// TEXT storage).
const dnssecKeyStoreTable = `CREATE TABLE IF NOT EXISTS 'DnssecKeyStore' (
id		INTEGER PRIMARY KEY,
zonename	TEXT NOT NULL,
locator		TEXT NOT NULL,
state		TEXT NOT NULL DEFAULT 'active',
flags		INTEGER NOT NULL,
algorithm	INTEGER NOT NULL,
dnskeyrr	TEXT NOT NULL,
privatekey	TEXT NOT NULL,
UNIQUE (zonename, locator)
)`

// SQLiteStore is a database/sql-backed zone.KeyStore over go-sqlite3, the
// persisted counterpart to MemStore. It stores private keys as PKCS#8
// DER, base64-encoded for the TEXT column, and reconstructs a
// crypto.Signer of the concrete key type on read.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if absent) a SQLite-backed key store at
// path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("keystore: opening %s: %w", path, err)
	}
	if _, err := db.Exec(dnssecKeyStoreTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("keystore: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// StoreKey persists k under zoneName as an active key, in PKCS#8 DER form.
func (s *SQLiteStore) StoreKey(zoneName string, k Key) error {
	der, err := x509.MarshalPKCS8PrivateKey(k.Signer)
	if err != nil {
		return fmt.Errorf("keystore: marshalling private key for %s: %w", k.Locator, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO DnssecKeyStore (zonename, locator, flags, algorithm, dnskeyrr, privatekey)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(zonename, locator) DO UPDATE SET
		   flags=excluded.flags, algorithm=excluded.algorithm,
		   dnskeyrr=excluded.dnskeyrr, privatekey=excluded.privatekey`,
		zoneName, k.Locator, k.Flags, k.Algorithm, k.DNSKEY.String(), base64.StdEncoding.EncodeToString(der),
	)
	if err != nil {
		return fmt.Errorf("keystore: storing key %s: %w", k.Locator, err)
	}
	return nil
}

// RevokeKey marks a key inactive rather than deleting it, preserving
// history for audit the way tdns's own keystore state column does.
func (s *SQLiteStore) RevokeKey(zoneName, locator string) error {
	_, err := s.db.Exec(`UPDATE DnssecKeyStore SET state='revoked' WHERE zonename=? AND locator=?`, zoneName, locator)
	return err
}

func (s *SQLiteStore) ActiveKeys(zoneName string) ([]zone.SigningKey, error) {
	keys, err := s.loadActiveKeys(zoneName)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, errNoActiveKeysZone
	}
	out := make([]zone.SigningKey, len(keys))
	for i, k := range keys {
		out[i] = k.toZoneKey()
	}
	return out, nil
}

func (s *SQLiteStore) CreateContext(zoneName string) (zone.SigningContext, error) {
	keys, err := s.loadActiveKeys(zoneName)
	if err != nil {
		return nil, err
	}
	byLocator := make(map[string]Key, len(keys))
	for _, k := range keys {
		byLocator[k.Locator] = k
	}
	return &signingContext{keys: byLocator}, nil
}

func (s *SQLiteStore) loadActiveKeys(zoneName string) ([]Key, error) {
	rows, err := s.db.Query(
		`SELECT locator, flags, algorithm, dnskeyrr, privatekey FROM DnssecKeyStore
		 WHERE zonename=? AND state='active'`, zoneName)
	if err != nil {
		return nil, fmt.Errorf("keystore: querying keys for %s: %w", zoneName, err)
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var locator, dnskeyPresentation, privB64 string
		var flags uint16
		var algorithm uint8
		if err := rows.Scan(&locator, &flags, &algorithm, &dnskeyPresentation, &privB64); err != nil {
			return nil, fmt.Errorf("keystore: scanning key row: %w", err)
		}
		rr, err := dns.NewRR(dnskeyPresentation)
		if err != nil {
			return nil, fmt.Errorf("keystore: parsing stored DNSKEY for %s: %w", locator, err)
		}
		dnskey, ok := rr.(*dns.DNSKEY)
		if !ok {
			return nil, fmt.Errorf("keystore: stored RR for %s is not a DNSKEY", locator)
		}
		der, err := base64.StdEncoding.DecodeString(privB64)
		if err != nil {
			return nil, fmt.Errorf("keystore: decoding private key for %s: %w", locator, err)
		}
		signer, err := signerFromPKCS8(der)
		if err != nil {
			return nil, fmt.Errorf("keystore: parsing private key for %s: %w", locator, err)
		}
		out = append(out, Key{
			Locator:   locator,
			Flags:     flags,
			Algorithm: algorithm,
			DNSKEY:    *dnskey,
			Signer:    signer,
		})
	}
	return out, rows.Err()
}

func signerFromPKCS8(der []byte) (crypto.Signer, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	case ed25519.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("keystore: unsupported private key type %T", key)
	}
}
