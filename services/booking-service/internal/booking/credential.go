package booking

import "time"

type CredentialStatus string

const (
	StatusActive  CredentialStatus = "active"
	StatusRevoked CredentialStatus = "revoked"
	StatusExpired CredentialStatus = "expired"
)

// ShareCredential is the share-token record granting public booking access to
// one business. It is read-only here; admins create and revoke it elsewhere.
type ShareCredential struct {
	BusinessID string
	Status     CredentialStatus
	ExpiresAt  *time.Time
}

// CheckCredential gates a booking request on the share token record. A nil
// credential means no record matched an active business.
func CheckCredential(cred *ShareCredential, now time.Time) error {
	if cred == nil {
		return reject(InvalidToken)
	}
	if cred.Status != StatusActive {
		return reject(BookingDisabled)
	}
	if cred.ExpiresAt != nil && now.After(*cred.ExpiresAt) {
		return reject(TokenExpired)
	}
	return nil
}
