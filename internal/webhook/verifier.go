package webhook

import (
	"crypto/subtle"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

// SignatureHeader carries the pre-shared secret on every provider call.
const SignatureHeader = "verif-hash"

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify rejects a missing or wrong signature. With no secret configured
// every request is rejected.
func (v *Verifier) Verify(signature string) error {
	if len(v.secret) == 0 || signature == "" {
		return parking.UnauthorizedError("Unauthorized")
	}
	if subtle.ConstantTimeCompare([]byte(signature), v.secret) != 1 {
		return parking.UnauthorizedError("Unauthorized")
	}
	return nil
}
