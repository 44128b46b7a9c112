package phone

import "testing"

func TestNormalizeE164FormatsNationalNumber(t *testing.T) {
	got := NormalizeE164("(212) 555-0123", "US")
	if got != "+12125550123" {
		t.Fatalf("expected +12125550123, got %q", got)
	}
}

func TestNormalizeE164KeepsInternationalPrefix(t *testing.T) {
	got := NormalizeE164("+31 6 12345678", "US")
	if got != "+31612345678" {
		t.Fatalf("expected +31612345678, got %q", got)
	}
}

func TestNormalizeE164ReturnsInputWhenUnparseable(t *testing.T) {
	got := NormalizeE164("  not-a-number  ", "US")
	if got != "not-a-number" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
}

func TestNormalizeE164EmptyInput(t *testing.T) {
	if got := NormalizeE164("   ", "US"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
