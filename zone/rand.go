package zone

import "math/rand/v2"

// randInt64N returns a pseudo-random value in [0, n) using the global,
// auto-seeded math/rand/v2 source. Isolated here so sign.go's jitter
// stays a one-line call and any future need to inject determinism for
// tests has a single seam.
func randInt64N(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return rand.Int64N(n)
}
