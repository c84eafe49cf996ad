package signature

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"backend/internal/schema"
)

// LegacyFields are the canonical fields of the legacy signature scheme, in
// the exact order they are hashed: prediction, context (skipped for the
// sentiment and hs tasks), hypothesis, then the task/round/secret triple.
type LegacyFields struct {
	TaskID     int64
	RoundID    int64
	Secret     string
	TaskCode   string
	Context    string
	Hypothesis string
	Prediction string
}

// VerifyLegacy checks a client-supplied signature against the legacy scheme.
// Diagnostics (received vs expected) go to the log only; callers get a bare
// boolean so no secret-derived material reaches clients.
func VerifyLegacy(logger *zap.Logger, received string, f LegacyFields) bool {
	h := sha1.New()
	h.Write([]byte(f.Prediction))
	if f.TaskCode != "sentiment" && f.TaskCode != "hs" {
		h.Write([]byte(f.Context))
	}
	h.Write([]byte(f.Hypothesis))
	h.Write([]byte(fmt.Sprintf("%d%d%s", f.TaskID, f.RoundID, f.Secret)))
	expected := hex.EncodeToString(h.Sum(nil))

	if received != expected {
		logger.Error("Legacy signature does not match",
			zap.String("received", received),
			zap.String("expected", expected))
		return false
	}
	logger.Info("Legacy signature matched", zap.String("signature", received))
	return true
}

// VerifyDelegated checks a client-supplied signature against the delegated
// scheme: the signature must equal the reconstruction under the current
// annotation config or the one under the legacy config variant, so models
// deployed before a schema change keep verifying.
func VerifyDelegated(logger *zap.Logger, received string, current, legacy schema.IO, fields map[string]interface{}, secret string) bool {
	expected := current.GenerateResponseSignature(fields, fields, secret)
	expectedLegacy := legacy.GenerateResponseSignature(fields, fields, secret)

	if received != expected && received != expectedLegacy {
		logger.Error("Delegated signature does not match",
			zap.String("received", received),
			zap.String("expected", expected),
			zap.String("expected_legacy", expectedLegacy))
		return false
	}
	logger.Info("Delegated signature matched", zap.String("signature", received))
	return true
}

// AnonUID derives a stable pseudonymous identifier for a user: a single-pass
// SHA-1 over the secret followed by the raw identifier. Downstream analytics
// can correlate a user across datasets without seeing the raw identity.
func AnonUID(secret, uid string) string {
	h := sha1.New()
	h.Write([]byte(secret))
	h.Write([]byte(uid))
	return hex.EncodeToString(h.Sum(nil))
}
