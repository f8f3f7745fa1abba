package valueobject

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

// Fingerprint is a stable deduplication key derived from a normalized error
// message and its environment. Two events that differ only in volatile tokens
// (numbers, UUIDs, hex identifiers, path tails) map to the same fingerprint.
type Fingerprint struct {
	value string
}

// Normalization patterns compiled once for performance.
var (
	uuidPattern    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexRunPattern  = regexp.MustCompile(`\b0[xX][0-9a-fA-F]+\b|\b[0-9a-fA-F]{16,}\b`)
	numberPattern  = regexp.MustCompile(`\d+`)
	pathTailRegexp = regexp.MustCompile(`(/[\w.\-]+){2,}`)
	spaceRunRegexp = regexp.MustCompile(`\s+`)
)

// NormalizeMessage strips volatile tokens from an error message so that
// repeated instances of the same underlying failure normalize identically.
func NormalizeMessage(message string) string {
	normalized := uuidPattern.ReplaceAllString(message, "<uuid>")
	normalized = hexRunPattern.ReplaceAllString(normalized, "<hex>")
	normalized = pathTailRegexp.ReplaceAllString(normalized, "<path>")
	normalized = numberPattern.ReplaceAllString(normalized, "<n>")
	normalized = spaceRunRegexp.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(strings.ToLower(normalized))
}

// NewFingerprint computes the fingerprint for a raw message and environment.
func NewFingerprint(message, environment string) (Fingerprint, error) {
	if strings.TrimSpace(message) == "" {
		return Fingerprint{}, errors.New("fingerprint: message cannot be empty")
	}

	normalized := NormalizeMessage(message)
	sum := sha256.Sum256([]byte(normalized + "\x00" + strings.ToLower(environment)))
	return Fingerprint{value: hex.EncodeToString(sum[:16])}, nil
}

// FingerprintFromString reconstructs a fingerprint from its stored hex form.
func FingerprintFromString(value string) (Fingerprint, error) {
	if value == "" {
		return Fingerprint{}, errors.New("fingerprint: value cannot be empty")
	}
	if _, err := hex.DecodeString(value); err != nil {
		return Fingerprint{}, errors.New("fingerprint: value must be hex encoded")
	}
	return Fingerprint{value: value}, nil
}

// String returns the hex representation of the fingerprint.
func (f Fingerprint) String() string {
	return f.value
}

// IsZero returns true if the fingerprint has not been computed.
func (f Fingerprint) IsZero() bool {
	return f.value == ""
}

// Equals returns true if both fingerprints identify the same error.
func (f Fingerprint) Equals(other Fingerprint) bool {
	return f.value == other.value
}
