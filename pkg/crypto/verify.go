package crypto

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Verifier checks a detached signature over a JSON payload.
type Verifier interface {
	Verify(payload json.RawMessage, signatureBase64, publicKeyPEM string) bool
}

type defaultVerifier struct{}

func NewVerifier() Verifier {
	return defaultVerifier{}
}

// digestInput is the compact JSON of payload, keys in the order received.
func digestInput(payload json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Verify accepts RSA PKCS#1 v1.5, ECDSA ASN.1 and Ed25519 signatures.
// Any decoding failure is reported as false.
func (defaultVerifier) Verify(payload json.RawMessage, signatureBase64, publicKeyPEM string) bool {
	msg, err := digestInput(payload)
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return false
	}
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)

	switch key := pub.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig) == nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(key, digest[:], sig)
	case ed25519.PublicKey:
		return ed25519.Verify(key, msg, sig)
	}
	return false
}

// Sign produces the base64 signature Verify accepts.
func Sign(payload json.RawMessage, privateKeyPEM string) (string, error) {
	msg, err := digestInput(payload)
	if err != nil {
		return "", fmt.Errorf("compact payload: %w", err)
	}
	signer, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	var sig []byte
	if _, ok := signer.(ed25519.PrivateKey); ok {
		sig, err = signer.Sign(rand.Reader, msg, crypto.Hash(0))
	} else {
		digest := sha256.Sum256(msg)
		sig, err = signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	}
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
