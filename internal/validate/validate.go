// Package validate holds the pure checks applied to values before they cross
// a trust boundary: network response into client state, or client state into
// a signed transaction.
package validate

import (
	"encoding/json"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MaxCountdownSeconds bounds any cooldown value read from a contract.
// One year in seconds; anything above it is treated as garbage.
const MaxCountdownSeconds = int64(31_536_000)

// MaxSafeInteger is the largest integer a float64-based consumer can
// represent exactly (2^53 - 1). Wider contract values are clamped to it.
const MaxSafeInteger = int64(1<<53 - 1)

// maxDisplayLen truncates any externally sourced text shown to the user.
const maxDisplayLen = 200

var logger = zap.NewNop()

// SetLogger installs the package logger used when clamping is reported.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsWellFormedAddress reports whether s is a 0x-prefixed 20-byte hex address.
// Case-insensitive; no checksum verification.
func IsWellFormedAddress(s string) bool {
	return addressRe.MatchString(s)
}

// allowedRPCHosts are the known-good RPC providers. A URL passes only when
// its host equals one of these or is a subdomain of one. This keeps a
// compromised or mistyped config from pointing reads and writes at an
// attacker-controlled endpoint.
var allowedRPCHosts = []string{
	"monad.xyz",
	"sepolia.org",
	"tenderly.co",
	"optimism.io",
	"arbitrum.io",
	"publicnode.com",
}

// IsAllowedRPCURL reports whether raw is an absolute https URL whose host is
// on (or under) the RPC allow-list.
func IsAllowedRPCURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "https" || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedRPCHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// abiKinds is the closed set of ABI entry types.
var abiKinds = map[string]bool{
	"function":    true,
	"constructor": true,
	"event":       true,
	"error":       true,
	"fallback":    true,
	"receive":     true,
}

// IsWellFormedABI reports whether data is a JSON array of ABI entries, each
// carrying a type field from the fixed entry-kind set. It gates contract
// construction so a corrupted or substituted ABI cannot steer the client into
// calling unintended selectors.
func IsWellFormedABI(data []byte) bool {
	var entries []struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return false
	}
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !abiKinds[e.Type] {
			return false
		}
	}
	return true
}

var (
	schemeRe  = regexp.MustCompile(`(?i)(javascript|vbscript|data)\s*:`)
	handlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// SanitizeDisplayText strips markup and script-looking substrings from text
// of external or contract origin before it is shown to the user, and
// truncates it to a fixed maximum length. All user-visible notification text
// goes through here regardless of where it came from.
func SanitizeDisplayText(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	s = schemeRe.ReplaceAllString(s, "")
	s = handlerRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) > maxDisplayLen {
		// Cut on a rune boundary so truncation never produces invalid UTF-8.
		cut := maxDisplayLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// ClampCountdown clamps a cooldown reading to [0, MaxCountdownSeconds].
// Negative or absurd values from a contract read come back as safe bounds,
// never an error: this is a display path.
func ClampCountdown(seconds int64) int64 {
	if seconds < 0 {
		return 0
	}
	if seconds > MaxCountdownSeconds {
		return MaxCountdownSeconds
	}
	return seconds
}

// SafeIntFromWide converts a possibly wider-than-53-bit contract value to the
// safe integer range, clamping rather than failing. Clamping is logged so a
// misbehaving contract shows up in diagnostics without breaking display.
func SafeIntFromWide(v *big.Int) int64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsInt64() || v.Int64() > MaxSafeInteger {
		logger.Warn("clamped wide integer from contract read",
			zap.String("value", v.String()),
			zap.Int64("max", MaxSafeInteger))
		return MaxSafeInteger
	}
	return v.Int64()
}
