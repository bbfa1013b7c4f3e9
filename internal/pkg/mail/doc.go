// Package mail sends email. The notification module depends on the Mail
// interface; SMTP is the only transport.
package mail
