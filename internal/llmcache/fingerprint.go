package llmcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// temperaturePrecision is the number of fractional digits kept when a
// temperature becomes part of a fingerprint. 0.7 and 0.70000001 share a key.
const temperaturePrecision = 4

// Derive returns the cache fingerprint for a generation request: the hex
// SHA-256 of the length-prefixed canonical fields. The prompt is used exactly
// as given; providerID should already be resolved and normalized.
func Derive(prompt, providerID string, maxTokens int, temperature float64) string {
	fields := [...]string{
		prompt,
		providerID,
		strconv.Itoa(maxTokens),
		FormatTemperature(temperature),
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// FormatTemperature renders t in the canonical fixed-precision form.
func FormatTemperature(t float64) string {
	s := strconv.FormatFloat(t, 'f', temperaturePrecision, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}
