package secretbox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCipher(t *testing.T, pass string) *Cipher {
	t.Helper()
	c, err := New(pass)
	require.NoError(t, err)
	return c
}

func TestNewRequiresPassphrase(t *testing.T) {
	_, err := New("   ")
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestRoundTrip(t *testing.T) {
	c := mustCipher(t, "correct horse battery staple")
	for _, pt := range []string{"", "EAAB-token", "ñandú 🚀 con unicode"} {
		s, err := c.Encrypt(pt)
		require.NoError(t, err)
		assert.True(t, s.Complete() || pt == "")

		got, err := c.Decrypt(s)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c := mustCipher(t, "k")
	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext+a.Tag, b.Ciphertext+b.Tag)
}

func TestDecryptTamperedFails(t *testing.T) {
	c := mustCipher(t, "k")
	s, err := c.Encrypt("secret-token")
	require.NoError(t, err)

	flip := func(b64 string) string {
		raw, _ := base64.StdEncoding.DecodeString(b64)
		raw[0] ^= 0x01
		return base64.StdEncoding.EncodeToString(raw)
	}

	cases := map[string]EncryptedSecret{
		"ciphertext": {Ciphertext: flip(s.Ciphertext), IV: s.IV, Tag: s.Tag},
		"iv":         {Ciphertext: s.Ciphertext, IV: flip(s.IV), Tag: s.Tag},
		"tag":        {Ciphertext: s.Ciphertext, IV: s.IV, Tag: flip(s.Tag)},
		"bad base64": {Ciphertext: "%%%", IV: s.IV, Tag: s.Tag},
		"short iv":   {Ciphertext: s.Ciphertext, IV: "AAAA", Tag: s.Tag},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(tc)
			assert.ErrorIs(t, err, ErrDecryption)
		})
	}
}

func TestDecryptRejectsAnySingleCharEdit(t *testing.T) {
	c := mustCipher(t, "k")
	s, err := c.Encrypt("hello-token")
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	edit := func(v string, i int, ch byte) string {
		b := []byte(v)
		b[i] = ch
		return string(b)
	}
	fields := map[string]func(EncryptedSecret, string) EncryptedSecret{
		"ciphertext": func(e EncryptedSecret, v string) EncryptedSecret { e.Ciphertext = v; return e },
		"iv":         func(e EncryptedSecret, v string) EncryptedSecret { e.IV = v; return e },
		"tag":        func(e EncryptedSecret, v string) EncryptedSecret { e.Tag = v; return e },
	}
	originals := map[string]string{"ciphertext": s.Ciphertext, "iv": s.IV, "tag": s.Tag}

	for name, set := range fields {
		orig := originals[name]
		accepted := 0
		for i := 0; i < len(orig); i++ {
			if orig[i] == '=' {
				continue
			}
			for j := 0; j < len(alphabet); j++ {
				if alphabet[j] == orig[i] {
					continue
				}
				if _, err := c.Decrypt(set(s, edit(orig, i, alphabet[j]))); err == nil {
					accepted++
				}
			}
		}
		assert.Zero(t, accepted, "%s: ediciones aceptadas", name)
	}

	// el tag de 16 bytes deja 4 bits de relleno en el último carácter
	require.Len(t, s.Tag, 24)
	pt, err := c.Decrypt(s)
	require.NoError(t, err)
	assert.Equal(t, "hello-token", pt)
}

func TestDecryptWithOtherKeyFails(t *testing.T) {
	s, err := mustCipher(t, "old-key").Encrypt("tok")
	require.NoError(t, err)
	_, err = mustCipher(t, "new-key").Decrypt(s)
	assert.ErrorIs(t, err, ErrDecryption)
}

// El formato debe ser compatible con AES-GCM estándar (ciphertext y tag separados).
func TestCompatibleWithStandardGCM(t *testing.T) {
	key := sha256.Sum256([]byte("pass"))
	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	nonce := bytes.Repeat([]byte{7}, 12)
	sealed := aead.Seal(nil, nonce, []byte("hello"), nil)
	s := EncryptedSecret{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed[:len(sealed)-16]),
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(sealed[len(sealed)-16:]),
	}
	got, err := mustCipher(t, "pass").Decrypt(s)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}
