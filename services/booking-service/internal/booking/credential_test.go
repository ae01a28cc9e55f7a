package booking

import (
	"testing"
	"time"
)

func TestCheckCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		cred *ShareCredential
		want Reason
	}{
		{"missing record", nil, InvalidToken},
		{"active no expiry", &ShareCredential{BusinessID: "b1", Status: StatusActive}, ""},
		{"active future expiry", &ShareCredential{BusinessID: "b1", Status: StatusActive, ExpiresAt: &future}, ""},
		{"active expires now", &ShareCredential{BusinessID: "b1", Status: StatusActive, ExpiresAt: &now}, ""},
		{"active expired", &ShareCredential{BusinessID: "b1", Status: StatusActive, ExpiresAt: &past}, TokenExpired},
		{"revoked no expiry", &ShareCredential{BusinessID: "b1", Status: StatusRevoked}, BookingDisabled},
		{"revoked future expiry", &ShareCredential{BusinessID: "b1", Status: StatusRevoked, ExpiresAt: &future}, BookingDisabled},
		{"expired status past expiry", &ShareCredential{BusinessID: "b1", Status: StatusExpired, ExpiresAt: &past}, BookingDisabled},
	}
	for _, tc := range cases {
		err := CheckCredential(tc.cred, now)
		if tc.want == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if reason, _ := ReasonOf(err); reason != tc.want {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
	}
}
