package validate

import (
	"strings"
	"testing"
)

func TestUsername(t *testing.T) {
	if err := Username("ab"); err == nil {
		t.Fatal("expected 2-char username to be rejected")
	}
	if err := Username("abc"); err != nil {
		t.Fatalf("expected 3-char username to be accepted: %v", err)
	}
	if err := Username(strings.Repeat("a", 30)); err != nil {
		t.Fatalf("expected 30-char username to be accepted: %v", err)
	}
	if err := Username(strings.Repeat("a", 31)); err == nil {
		t.Fatal("expected 31-char username to be rejected")
	}
	if err := Username("jane.doe_99"); err != nil {
		t.Fatalf("expected dotted username to be accepted: %v", err)
	}
	if err := Username("jane doe"); err == nil {
		t.Fatal("expected username with space to be rejected")
	}
	if err := Username("jane-doe"); err == nil {
		t.Fatal("expected username with hyphen to be rejected")
	}
}

func TestPasswordBoundary(t *testing.T) {
	if err := Password("12345", 6); err == nil {
		t.Fatal("expected 5-char password to be rejected at minimum 6")
	}
	if err := Password("123456", 6); err != nil {
		t.Fatalf("expected 6-char password to be accepted at minimum 6: %v", err)
	}
	if err := Password("12345", 0); err == nil {
		t.Fatal("expected default minimum to apply when unconfigured")
	}
}

func TestEmail(t *testing.T) {
	if err := Email("not-an-email"); err == nil {
		t.Fatal("expected invalid email to be rejected")
	}
	if err := Email("user@example.com"); err != nil {
		t.Fatalf("expected valid email to be accepted: %v", err)
	}
}

func TestTextLimits(t *testing.T) {
	if err := Bio(strings.Repeat("b", 150)); err != nil {
		t.Fatalf("expected 150-char bio to be accepted: %v", err)
	}
	if err := Bio(strings.Repeat("b", 151)); err == nil {
		t.Fatal("expected 151-char bio to be rejected")
	}

	if err := Caption(strings.Repeat("c", 2200)); err != nil {
		t.Fatalf("expected 2200-char caption to be accepted: %v", err)
	}
	if err := Caption(strings.Repeat("c", 2201)); err == nil {
		t.Fatal("expected 2201-char caption to be rejected")
	}

	if err := Comment(""); err == nil {
		t.Fatal("expected empty comment to be rejected")
	}
	if err := Comment("   "); err == nil {
		t.Fatal("expected whitespace-only comment to be rejected")
	}
	if err := Comment(strings.Repeat("d", 500)); err != nil {
		t.Fatalf("expected 500-char comment to be accepted: %v", err)
	}
	if err := Comment(strings.Repeat("d", 501)); err == nil {
		t.Fatal("expected 501-char comment to be rejected")
	}
}
