package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// UnknownAddress is recorded when no client address could be resolved.
const UnknownAddress = "unknown"

const saltDateLayout = "2006-01-02"

// Anonymizer turns raw client addresses into daily-salted one-way hashes.
//
// The salt is the configured secret concatenated with the current UTC
// calendar date, so hashes of the same address are linkable within a day
// (enough to correlate an abusive burst) but not across day boundaries.
type Anonymizer struct {
	secret string
	now    func() time.Time
}

// NewAnonymizer constructs an anonymizer. The secret must be a dedicated,
// non-public value; an empty secret is rejected rather than silently
// weakening the hash.
func NewAnonymizer(secret string) (*Anonymizer, error) {
	if secret == "" {
		return nil, fmt.Errorf("anonymizer secret must not be empty")
	}

	return &Anonymizer{secret: secret, now: time.Now}, nil
}

// HashIP returns the hex-encoded SHA-256 digest of the raw address combined
// with the daily salt. The raw address never leaves this function.
func (a *Anonymizer) HashIP(raw string) string {
	if raw == "" {
		raw = UnknownAddress
	}

	sum := sha256.Sum256([]byte(raw + a.dailySalt()))
	return hex.EncodeToString(sum[:])
}

func (a *Anonymizer) dailySalt() string {
	return a.secret + a.now().UTC().Format(saltDateLayout)
}
