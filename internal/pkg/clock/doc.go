// Package clock abstracts the wall clock so OTP expiry and rate-limit windows
// can be driven by a fixed time in tests.
package clock
