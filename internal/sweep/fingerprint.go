package sweep

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainSweep separates sweep fingerprints from other hashes.
// The version suffix allows the encoding to change later.
const DomainSweep = "onager/sweep/v1"

// Fingerprint identifies a sweep specification. Two specs with the same
// fingerprint expand to the same commands for the same Sampler seed.
func Fingerprint(spec Spec) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSweep, data), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
