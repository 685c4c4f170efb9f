package zone

import "fmt"

// Status is the small result enum the engine's public operations reduce
// every internal failure to.
type Status uint8

const (
	StatusOK Status = iota
	StatusArg
	StatusConflict
	StatusErr
	StatusAssert
)

var statusToString = map[Status]string{
	StatusOK:       "ok",
	StatusArg:      "bad argument",
	StatusConflict: "conflict",
	StatusErr:      "error",
	StatusAssert:   "invariant breach",
}

func (s Status) String() string {
	if str, ok := statusToString[s]; ok {
		return str
	}
	return "unknown status"
}

// ZoneError is the error type every exported zone operation returns on
// failure. Callers that need to branch on the failure category should use
// errors.As to recover the Status.
type ZoneError struct {
	Op     string
	Status Status
	Zone   string
	Name   string
	Err    error
}

func (e *ZoneError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (zone=%s name=%s): %v", e.Op, e.Status, e.Zone, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %s (zone=%s): %v", e.Op, e.Status, e.Zone, e.Err)
}

func (e *ZoneError) Unwrap() error {
	return e.Err
}

func newErr(op string, st Status, zone, name string, err error) *ZoneError {
	return &ZoneError{Op: op, Status: st, Zone: zone, Name: name, Err: err}
}

func argErr(op, zone, name string, err error) error {
	return newErr(op, StatusArg, zone, name, err)
}

func conflictErr(op, zone, name string, err error) error {
	return newErr(op, StatusConflict, zone, name, err)
}

func fatalErr(op, zone, name string, err error) error {
	return newErr(op, StatusErr, zone, name, err)
}

func assertErr(op, zone, name string, err error) error {
	return newErr(op, StatusAssert, zone, name, err)
}
