package security

import "time"

const VerificationTokenTTL = 24 * time.Hour

func VerificationExpiry(issuedAt time.Time) time.Time {
	return issuedAt.Add(VerificationTokenTTL)
}

// ResetExpiry returns the last microsecond of 23:59:59 on the calendar day (in loc)
// on which the reset token was issued.
func ResetExpiry(issuedAt time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := issuedAt.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Microsecond), loc)
}

// IsExpired reports whether now is strictly after expiry.
func IsExpired(expiry, now time.Time) bool {
	return now.After(expiry)
}
