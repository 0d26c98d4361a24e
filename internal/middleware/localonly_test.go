package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalOnly(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		wantStatus int
	}{
		{"ipv4 loopback", "127.0.0.1:54321", http.StatusOK},
		{"ipv6 loopback", "[::1]:54321", http.StatusOK},
		{"lan address", "192.168.1.50:54321", http.StatusForbidden},
		{"public address", "203.0.113.7:443", http.StatusForbidden},
		{"garbage", "not-an-address", http.StatusForbidden},
	}

	handler := LocalOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("RemoteAddr %s: got status %d, want %d", tt.remoteAddr, rec.Code, tt.wantStatus)
			}
		})
	}
}
