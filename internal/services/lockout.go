package services

// Lockout thresholds. The two counters guard two independent abuse
// vectors: excessive OTP issuance and excessive wrong-code guesses.
// Both trip the same permanent block flag; there is no unblock path in
// this service, a blocked user is cleared externally.
const (
	maxOTPRequests  = 5
	maxFailedLogins = 5
)

// otpRequestsExhausted reports whether a sign-in request must block the
// user instead of issuing another code.
func otpRequestsExhausted(otpAttempts int) bool {
	return otpAttempts >= maxOTPRequests
}

// failedLoginsExhausted reports whether the given failure count trips
// the lockout.
func failedLoginsExhausted(failedLogins int) bool {
	return failedLogins >= maxFailedLogins
}
