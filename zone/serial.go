package zone

import "time"

// SerialPolicy selects the rule updateSerialLocked follows to derive the
// internal SOA serial from the inbound one.
type SerialPolicy uint8

const (
	SerialUnixtime SerialPolicy = iota
	SerialCounter
	SerialDatecounter
	SerialKeep
)

var serialPolicyToString = map[SerialPolicy]string{
	SerialUnixtime:    "unixtime",
	SerialCounter:     "counter",
	SerialDatecounter: "datecounter",
	SerialKeep:        "keep",
}

func (p SerialPolicy) String() string {
	if s, ok := serialPolicyToString[p]; ok {
		return s
	}
	return "unknown"
}

// SerialGT implements RFC 1982 §3.2 serial number comparison: reports
// whether a is strictly greater than b in modular 32-bit arithmetic.
func SerialGT(a, b uint32) bool {
	return (a != b) && ((a < b && b-a > 1<<31) || (a > b && a-b < 1<<31))
}

// serialClampedAdd adds delta to prev under mod-2^32 arithmetic, clamping
// delta to the maximum RFC 1982 allows (2^31 - 1) so the result is never
// ambiguous relative to prev under SerialGT.
func serialClampedAdd(prev uint32, delta uint32) uint32 {
	const maxDelta = 1<<31 - 1
	if delta > maxDelta {
		delta = maxDelta
	}
	return prev + delta
}

// nowFn is overridden in tests to make datecounter/unixtime updates
// deterministic.
var nowFn = time.Now

// updateSerialLocked recomputes InternalSerial from InboundSerial and the
// configured SOASerial policy. It must be called with z.mu already held
// by the caller; Sign calls it internally.
func (z *ZoneData) updateSerialLocked() error {
	if z.Policy == nil {
		return assertErr("UpdateSerial", z.Name, "", errNoPolicy)
	}
	prev := z.InternalSerial
	now := z.nowSerial()

	var next uint32
	switch z.Policy.SOASerial {
	case SerialUnixtime:
		next = maxSerial(z.InboundSerial, now)
		if z.Initialized && !SerialGT(next, prev) {
			next = serialClampedAdd(prev, 1)
		}
	case SerialCounter:
		if !z.Initialized {
			next = serialClampedAdd(z.InboundSerial, 1)
			z.InternalSerial = next
			z.Initialized = true
			return nil
		}
		next = maxSerial(z.InboundSerial, prev)
		if !SerialGT(next, prev) {
			next = serialClampedAdd(prev, 1)
		}
	case SerialDatecounter:
		next = z.dateCounterSerial(now)
		if z.Initialized && !SerialGT(next, prev) {
			next = serialClampedAdd(prev, 1)
		}
	case SerialKeep:
		next = z.InboundSerial
		if z.Initialized && !SerialGT(next, prev) {
			return fatalErr("UpdateSerial", z.Name, "", errSerialNotMonotonic)
		}
	default:
		return assertErr("UpdateSerial", z.Name, "", errUnknownSerialPolicy)
	}

	z.InternalSerial = next
	z.Initialized = true
	return nil
}

func (z *ZoneData) nowSerial() uint32 {
	return uint32(nowFn().UTC().Unix())
}

func (z *ZoneData) dateCounterSerial(now uint32) uint32 {
	t := time.Unix(int64(now), 0).UTC()
	return uint32(t.Year())*1000000 + uint32(t.Month())*10000 + uint32(t.Day())*100
}

func maxSerial(a, b uint32) uint32 {
	if SerialGT(a, b) {
		return a
	}
	return b
}

var (
	errNoPolicy            = argErrString("zone has no Policy assigned")
	errSerialNotMonotonic  = argErrString("keep policy: inbound serial not greater than internal serial")
	errUnknownSerialPolicy = argErrString("unknown serial policy")
)
