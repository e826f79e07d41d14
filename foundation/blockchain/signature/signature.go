// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultKeyBits is the size of the RSA keys generated for wallets.
const DefaultKeyBits = 2048

// Set of error variables for key and signature handling.
var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrInvalidSignature = errors.New("invalid signature")
)

// =============================================================================

// Hash returns the lowercase hex encoded SHA-256 digest of the data.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString is a convenience wrapper for hashing string data.
func HashString(data string) string {
	return Hash([]byte(data))
}

// =============================================================================

// GenerateKey produces a new RSA private key of the specified size.
func GenerateKey(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// EncodePublicKey returns the hex encoded PEM of the public key. This is the
// form a sender is identified by inside a transaction.
func EncodePublicKey(publicKey *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", err
	}

	block := pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}

	return hex.EncodeToString(pem.EncodeToMemory(&block)), nil
}

// EncodePrivateKey returns the hex encoded PKCS#1 PEM of the private key.
func EncodePrivateKey(privateKey *rsa.PrivateKey) string {
	block := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}

	return hex.EncodeToString(pem.EncodeToMemory(&block))
}

// ParsePublicKey decodes a hex encoded PEM public key. Both the PKIX and the
// PKCS#1 encodings are accepted.
func ParsePublicKey(publicKeyHex string) (*rsa.PublicKey, error) {
	block, err := decodePEM(publicKeyHex)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}

		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an rsa public key", ErrInvalidKey)
		}
		return rsaKey, nil

	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}
		return key, nil
	}

	return nil, fmt.Errorf("%w: unsupported pem type %q", ErrInvalidKey, block.Type)
}

// ParsePrivateKey decodes a hex encoded PEM private key. Both the PKCS#1 and
// the PKCS#8 encodings are accepted.
func ParsePrivateKey(privateKeyHex string) (*rsa.PrivateKey, error) {
	block, err := decodePEM(privateKeyHex)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}
		return key, nil

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}

		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an rsa private key", ErrInvalidKey)
		}
		return rsaKey, nil
	}

	return nil, fmt.Errorf("%w: unsupported pem type %q", ErrInvalidKey, block.Type)
}

// LoadKey reads a private key stored by SaveKey.
func LoadKey(file string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	return ParsePrivateKey(strings.TrimSpace(string(data)))
}

// SaveKey stores the private key in hex encoded PEM form with restrictive
// file permissions.
func SaveKey(file string, privateKey *rsa.PrivateKey) error {
	return os.WriteFile(file, []byte(EncodePrivateKey(privateKey)), 0600)
}

// =============================================================================

// Sign signs the bytes of the hex hash string with the private key and
// returns the hex encoded signature.
func Sign(hash string, privateKey *rsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(hash))

	sig, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sig), nil
}

// Verify checks the hex encoded signature was produced over the bytes of the
// hash string by the owner of the hex encoded public key.
func Verify(hash string, sigHex string, publicKeyHex string) error {
	publicKey, err := ParsePublicKey(publicKeyHex)
	if err != nil {
		return err
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	digest := sha256.Sum256([]byte(hash))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return nil
}

// =============================================================================

// decodePEM converts the hex string back into the PEM block it encodes.
func decodePEM(keyHex string) (*pem.Block, error) {
	data, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no pem data found", ErrInvalidKey)
	}

	return block, nil
}
