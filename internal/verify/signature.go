// Package verify checks detached minisign signatures of patch archives
package verify

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedisct1/go-minisign"
)

// ErrInvalidSignature is returned when a signature does not match the content
var ErrInvalidSignature = errors.New("signature verification failed")

// Minisign verifies content against the signature file at sigPath using
// the base64 encoded public key
func Minisign(content []byte, sigPath, publicKey string) error {
	pubKey, err := minisign.NewPublicKey(strings.TrimSpace(publicKey))
	if err != nil {
		return fmt.Errorf("failed to parse minisign public key: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read minisign signature: %w", err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !valid {
		return ErrInvalidSignature
	}
	return nil
}

// File verifies the file at path against sigPath
func File(path, sigPath, publicKey string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Minisign(content, sigPath, publicKey)
}
