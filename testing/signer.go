package testing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
)

// MinisignSigner produces minisign public keys and detached signatures
type MinisignSigner struct {
	keyID [8]byte
	pub   ed25519.PublicKey
	priv  ed25519.PrivateKey
}

// NewMinisignSigner generates a fresh Ed25519 key pair
func NewMinisignSigner(t *testing.T) *MinisignSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	s := &MinisignSigner{pub: pub, priv: priv}
	copy(s.keyID[:], "testkey1")
	return s
}

// PublicKey returns the base64 public key as minisign prints it
func (s *MinisignSigner) PublicKey() string {
	raw := append([]byte("Ed"), s.keyID[:]...)
	raw = append(raw, s.pub...)
	return base64.StdEncoding.EncodeToString(raw)
}

// Sign returns a .minisig document for content
func (s *MinisignSigner) Sign(content []byte) []byte {
	sig := ed25519.Sign(s.priv, content)
	trusted := "timestamp:1700000000\tfile:patch.zip"
	global := ed25519.Sign(s.priv, append(append([]byte{}, sig...), trusted...))

	line := append([]byte("Ed"), s.keyID[:]...)
	line = append(line, sig...)
	return []byte("untrusted comment: signature from test key\n" +
		base64.StdEncoding.EncodeToString(line) + "\n" +
		"trusted comment: " + trusted + "\n" +
		base64.StdEncoding.EncodeToString(global) + "\n")
}
