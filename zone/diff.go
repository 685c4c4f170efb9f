package zone

// SignatureNeed describes one RRset requiring an RRSIG pass: either
// because its covered RRs changed, or because the active signing key set
// changed since the RRset was last signed.
type SignatureNeed struct {
	Domain *Domain
	Type   uint16
}

// Diff walks the committed tree and determines which RRsets require
// (re)signing: a signature is invalidated when any covered RR changes,
// or when the signing key set itself changes. keyGeneration is an
// opaque token identifying the current active key set (callers typically
// pass a hash of active key locators); a Domain/RRset last signed under
// a different generation is included even if its RRs are unchanged.
func (z *ZoneData) Diff(keyGeneration string) []SignatureNeed {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.diffLocked(keyGeneration)
}
