package hash

// Hash produces a digest of str and checks plaintext against a digest.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
