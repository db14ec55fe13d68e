package store

import "testing"

func TestToUUIDRoundTrip(t *testing.T) {
	const raw = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	id, err := ToUUID(raw)
	if err != nil {
		t.Fatalf("ToUUID(%q): %v", raw, err)
	}
	if !id.Valid {
		t.Fatalf("ToUUID(%q) returned an invalid UUID", raw)
	}
	if got := UUIDString(id); got != raw {
		t.Fatalf("UUIDString = %q, want %q", got, raw)
	}
}

func TestToUUIDRejectsGarbage(t *testing.T) {
	if _, err := ToUUID("not-a-uuid"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewUUIDIsValidAndUnique(t *testing.T) {
	a, b := NewUUID(), NewUUID()
	if !a.Valid || !b.Valid {
		t.Fatalf("NewUUID produced invalid values: %v %v", a.Valid, b.Valid)
	}
	if UUIDEqual(a, b) {
		t.Fatal("two fresh UUIDs collided")
	}
	if !UUIDEqual(a, a) {
		t.Fatal("UUIDEqual must hold reflexively for valid values")
	}
}
