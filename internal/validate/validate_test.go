package validate

import (
	"errors"
	"strings"
	"testing"

	"lenscap/internal/api"
)

func TestEmailAcceptsAndTrims(t *testing.T) {
	got, err := Email("  a@b.com ")
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	if got != "a@b.com" {
		t.Fatalf("unexpected address: %q", got)
	}
}

func TestEmailRejectsBadShapes(t *testing.T) {
	for _, address := range []string{"", "not-an-email", "missing@", "@domain.com"} {
		if _, err := Email(address); !errors.Is(err, api.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", address, err)
		}
	}
}

func TestPasswordBounds(t *testing.T) {
	if err := Password("short"); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected rejection of short password, got %v", err)
	}
	if err := Password(strings.Repeat("x", 129)); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected rejection of overlong password, got %v", err)
	}
	if err := Password("longenough"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  photo.jpg ":    "photo.jpg",
		"a/b\\c.png":      "a-b-c.png",
		`what?"<>|.jpg`:   "what.jpg",
		"trip: day*2.jpg": "trip- day-2.jpg",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}
