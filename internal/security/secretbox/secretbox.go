// Package secretbox cifra los tokens de Meta antes de persistirlos.
//
// AES-256-GCM con clave = SHA-256(passphrase). Cada llamada usa un nonce
// aleatorio de 96 bits; el tag de 128 bits se guarda aparte del ciphertext
// para mantener el formato {token_ciphertext, token_iv, token_tag} que ya
// existe en la base.
//
// Rotar la passphrase invalida todos los ciphertexts guardados.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSize = 12 // 96 bits
	tagSize   = 16 // 128 bits
)

var (
	// ErrNoKey indica que no hay passphrase configurada.
	ErrNoKey = errors.New("secretbox: encryption key not configured")
	// ErrDecryption agrupa cualquier fallo al descifrar (formato, tag, clave distinta).
	ErrDecryption = errors.New("secretbox: decryption failed")
)

// EncryptedSecret es la forma persistida de un token cifrado. Los tres campos van en base64.
type EncryptedSecret struct {
	Ciphertext string `json:"token_ciphertext"`
	IV         string `json:"token_iv"`
	Tag        string `json:"token_tag"`
}

// Complete indica si los tres campos están presentes.
func (s *EncryptedSecret) Complete() bool {
	return s != nil && s.Ciphertext != "" && s.IV != "" && s.Tag != ""
}

// Cipher cifra/descifra con una clave derivada de la passphrase.
// Es seguro para uso concurrente.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New deriva la clave y prepara el AEAD. Una passphrase vacía (o solo espacios)
// retorna ErrNoKey.
func New(passphrase string) (*Cipher, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrNoKey
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("secretbox: new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("secretbox: new gcm: %w", err)
	}
	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// Encrypt cifra plaintext con un nonce nuevo.
func (c *Cipher) Encrypt(plaintext string) (EncryptedSecret, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return EncryptedSecret{}, fmt.Errorf("secretbox: nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal devuelve ciphertext||tag; se separan para el formato persistido.
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	enc := base64.StdEncoding
	return EncryptedSecret{
		Ciphertext: enc.EncodeToString(ct),
		IV:         enc.EncodeToString(nonce),
		Tag:        enc.EncodeToString(tag),
	}, nil
}

// Decrypt verifica el tag y retorna el plaintext. Cualquier fallo es ErrDecryption.
func (c *Cipher) Decrypt(s EncryptedSecret) (string, error) {
	// Strict: bits de relleno distintos de cero son un componente alterado.
	enc := base64.StdEncoding.Strict()
	ct, err := enc.DecodeString(s.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrDecryption, err)
	}
	nonce, err := enc.DecodeString(s.IV)
	if err != nil || len(nonce) != nonceSize {
		return "", fmt.Errorf("%w: invalid iv", ErrDecryption)
	}
	tag, err := enc.DecodeString(s.Tag)
	if err != nil || len(tag) != tagSize {
		return "", fmt.Errorf("%w: invalid tag", ErrDecryption)
	}

	buf := make([]byte, 0, len(ct)+len(tag))
	buf = append(buf, ct...)
	buf = append(buf, tag...)
	pt, err := c.aead.Open(nil, nonce, buf, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(pt), nil
}
