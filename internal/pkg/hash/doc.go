// Package hash stores secrets as one-way digests: passwords with argon2id or
// bcrypt, one-time codes with a keyed HMAC.
package hash
