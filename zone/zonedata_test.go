package zone

import "testing"

func TestAddRRCreatesApexOnFirstRR(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)

	if z.Apex() == nil {
		t.Fatalf("expected apex to be set after adding an apex RR")
	}
	if z.Apex().Status != StatusApex {
		t.Fatalf("expected apex Domain status APEX, got %s", z.Apex().Status)
	}
}

func TestAddRRRejectsNil(t *testing.T) {
	z := NewZoneData("example.com.")
	if err := z.AddRR(nil, true); err == nil {
		t.Fatalf("expected an error for a nil RR")
	}
}

func TestAddRRRejectsClassMismatch(t *testing.T) {
	z := NewZoneData("example.com.")
	addRR(t, z, "example.com. 3600 IN SOA a. b. 1 3600 900 604800 3600", true)
	chaos := mustRR(t, "example.com. 3600 CH TXT \"x\"")
	if err := z.AddRR(chaos, false); err == nil {
		t.Fatalf("expected a class-mismatch error")
	}
}

func TestDelRRAbsentOwnerIsWarningNotError(t *testing.T) {
	z := NewZoneData("example.com.")
	err := z.DelRR(mustRR(t, "nowhere.example.com. 3600 IN A 192.0.2.1"))
	if err != nil {
		t.Fatalf("expected DelRR against an absent owner to succeed as a warning, got %v", err)
	}
}

func TestSetInboundSerial(t *testing.T) {
	z := NewZoneData("example.com.")
	z.SetInboundSerial(42)
	if z.InboundSerial != 42 {
		t.Fatalf("expected InboundSerial 42, got %d", z.InboundSerial)
	}
}
