// Package signer binds an issuer's identity to a credential's non-PII
// attributes with ECDSA P-256 signatures.
//
// Keys are serialized as base64-wrapped PEM (PKCS#8 for private keys,
// SubjectPublicKeyInfo for public keys) so they round-trip through any text
// column or JSON field. Signatures are base64 ASN.1 DER over the canonical
// payload bytes, hashed with SHA-256.
package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// KeyPair carries a freshly generated issuer keypair in storage form.
// The private component must never leave the issuer's control.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKeyPair creates a new ECDSA P-256 keypair.
func GenerateKeyPair() (KeyPair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate keypair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return KeyPair{}, fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("marshal public key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return KeyPair{
		PrivateKey: base64.StdEncoding.EncodeToString(privPEM),
		PublicKey:  base64.StdEncoding.EncodeToString(pubPEM),
	}, nil
}

// Sign signs the canonical payload with the issuer's private key and returns
// a base64 DER signature.
func Sign(privateKey string, payload Payload) (string, error) {
	key, err := loadPrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	data, err := payload.Canonical()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(data)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature binds payload to the holder of publicKey.
// It never returns an error: malformed keys, corrupted signatures, and
// genuine mismatches are all reported uniformly as false so a public
// verification endpoint leaks nothing about the failure mode.
func Verify(publicKey string, payload Payload, signature string) bool {
	key, err := loadPublicKey(publicKey)
	if err != nil {
		return false
	}
	data, err := payload.Canonical()
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(data)
	return ecdsa.VerifyASN1(key, digest[:], sig)
}

func loadPrivateKey(encoded string) (*ecdsa.PrivateKey, error) {
	block, err := decodePEM(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid private key: not an ECDSA key")
	}
	return key, nil
}

func loadPublicKey(encoded string) (*ecdsa.PublicKey, error) {
	block, err := decodePEM(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid public key: not an ECDSA key")
	}
	return key, nil
}

func decodePEM(encoded string) (*pem.Block, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	return block, nil
}
