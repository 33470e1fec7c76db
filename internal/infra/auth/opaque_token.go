package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"tienda/internal/domain/service"

	"github.com/pkg/errors"
)

const opaqueTokenBytes = 32

// opaqueTokenIssuer issues random hex tokens for mailed links and keeps only their SHA-256 digest.
type opaqueTokenIssuer struct{}

// NewOpaqueTokenIssuer is the constructor for opaqueTokenIssuer.
func NewOpaqueTokenIssuer() service.OpaqueTokenIssuer {
	return opaqueTokenIssuer{}
}

func (i opaqueTokenIssuer) Issue() (string, string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "failed to read random bytes")
	}
	token := hex.EncodeToString(buf)

	return token, i.Hash(token), nil
}

func (opaqueTokenIssuer) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
