package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrBadSignature = errors.New("payment signature mismatch")

// Signer calcule la signature HMAC-SHA256 (hex) de "gatewayOrderID|gatewayPaymentID".
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compare en temps constant. Sans secret configuré, rien n'est accepté.
func (s *Signer) Verify(gatewayOrderID, gatewayPaymentID, signature string) error {
	if len(s.secret) == 0 || gatewayOrderID == "" || gatewayPaymentID == "" {
		return ErrBadSignature
	}
	expected := s.Sign(gatewayOrderID, gatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
