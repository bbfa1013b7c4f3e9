package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashers(t *testing.T) {
	hashers := map[string]Hash{
		"hmac":     NewHMACSHA256("server-secret"),
		"bcrypt":   NewBcrypt(4, "pepper"),
		"argon2id": NewArgon2id("pepper"),
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			digest, err := h.Hash("Secr3t-pass")
			require.NoError(t, err)

			assert.NotEqual(t, "Secr3t-pass", string(digest))
			assert.True(t, h.Verify(string(digest), "Secr3t-pass"))
			assert.False(t, h.Verify(string(digest), "secr3t-pass"))
			assert.False(t, h.Verify("", "Secr3t-pass"))
		})
	}
}

func TestHMACSHA256_KeyedDigest(t *testing.T) {
	a, _ := NewHMACSHA256("k1").Hash("123456")
	b, _ := NewHMACSHA256("k2").Hash("123456")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestArgon2id_MalformedDigest(t *testing.T) {
	h := NewArgon2id("")
	assert.False(t, h.Verify("$argon2id$v=19$m=1$salt$key", "x"))
	assert.False(t, h.Verify("$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5", "x"))
}
