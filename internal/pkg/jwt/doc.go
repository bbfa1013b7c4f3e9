// Package jwt verifies the HS512 bearer tokens minted by the session service
// and carries the verified claims on the request context. Generate exists so
// tooling and tests can mint tokens with the shared secret.
package jwt
