package i18n

import "testing"

func TestNegotiate(t *testing.T) {
	c := New("en")

	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"empty falls back", nil, "en"},
		{"explicit choice", []string{"hi"}, "hi"},
		{"accept-language header", []string{"", "kn-IN,kn;q=0.9,en;q=0.5"}, "kn"},
		{"explicit beats header", []string{"ml", "hi-IN"}, "ml"},
		{"unsupported falls back", []string{"fr-FR"}, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Negotiate(tt.prefs...); got != tt.want {
				t.Errorf("Negotiate(%v) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestTranslateFallsBack(t *testing.T) {
	c := New("en")

	if got := c.T("hi", "nav.home"); got != "होम" {
		t.Errorf("Expected Hindi label, got %q", got)
	}
	// Kannada has no error strings, English is used
	if got := c.T("kn", "error.booking.not_found"); got != "Booking not found" {
		t.Errorf("Expected English fallback, got %q", got)
	}
	if got := c.T("en", "no.such.key"); got != "no.such.key" {
		t.Errorf("Expected key echo for unknown key, got %q", got)
	}
}

func TestDefaultLanguage(t *testing.T) {
	c := New("hi")
	if got := c.Negotiate(); got != "hi" {
		t.Errorf("Expected hi as fallback, got %q", got)
	}
	if got := c.T("kn", "error.store"); got != "कुछ गलत हो गया। कृपया पुनः प्रयास करें।" {
		t.Errorf("Expected Hindi fallback, got %q", got)
	}

	if got := New("xx").Negotiate(); got != "en" {
		t.Errorf("Unsupported default should fall back to en, got %q", got)
	}
}
