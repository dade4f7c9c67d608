package voice

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name          string
		allowedOrigin string
		isDev         bool
		origin        string
		want          bool
	}{
		{"dev allows anything", "https://app.example.com", true, "https://evil.example.com", true},
		{"matching origin", "https://app.example.com", false, "https://app.example.com", true},
		{"mismatched origin", "https://app.example.com", false, "https://evil.example.com", false},
		{"empty origin header", "https://app.example.com", false, "", true},
		{"wildcard allowed", "*", false, "https://anything.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRelayHandler("key", "agent", "wss://upstream.example.com/ws", tt.allowedOrigin, tt.isDev)
			r := httptest.NewRequest(http.MethodGet, "/ws/voice", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := h.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin: expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRejectedOriginDoesNotUpgrade(t *testing.T) {
	h := NewRelayHandler("key", "agent", "wss://upstream.example.com/ws", "https://app.example.com", false)

	r := httptest.NewRequest(http.MethodGet, "/ws/voice", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}
