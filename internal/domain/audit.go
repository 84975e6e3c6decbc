package domain

import "time"

// LoginStatus is the outcome recorded in the login audit log.
type LoginStatus string

const (
	LoginSuccess             LoginStatus = "SUCCESS"
	LoginFailedUserNotFound  LoginStatus = "FAILED_USER_NOT_FOUND"
	LoginFailedWrongPassword LoginStatus = "FAILED_WRONG_PASSWORD"
	LoginFailedAccountLocked LoginStatus = "FAILED_ACCOUNT_LOCKED"
	LoginLogout              LoginStatus = "LOGOUT"
)

// IsFailure reports whether the status is one of the FAILED_* outcomes.
func (s LoginStatus) IsFailure() bool {
	switch s {
	case LoginFailedUserNotFound, LoginFailedWrongPassword, LoginFailedAccountLocked:
		return true
	}
	return false
}

// LoginAudit is one append-only audit row.
type LoginAudit struct {
	ID                string
	UserID            string
	EmailAttempted    string
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
	Status            LoginStatus
	FailureReason     string
	SessionID         string
	CreatedAt         time.Time
}
