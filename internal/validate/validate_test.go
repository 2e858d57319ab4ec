package validate

import (
	"math/big"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// IsWellFormedAddress
// ---------------------------------------------------------------------------

func TestAddressValid(t *testing.T) {
	assert.True(t, IsWellFormedAddress("0x8B5C1a7E2d9F0b3A4C6E8d1F2a3B4c5D6e7F8A90"))
}

func TestAddressValidAllLower(t *testing.T) {
	assert.True(t, IsWellFormedAddress("0x"+strings.Repeat("ab12cd34", 5)))
}

func TestAddressMissingPrefix(t *testing.T) {
	assert.False(t, IsWellFormedAddress("8B5C1a7E2d9F0b3A4C6E8d1F2a3B4c5D6e7F8A90"))
}

func TestAddressTooShort(t *testing.T) {
	assert.False(t, IsWellFormedAddress("0x8B5C1a7E"))
}

func TestAddressTooLong(t *testing.T) {
	assert.False(t, IsWellFormedAddress("0x8B5C1a7E2d9F0b3A4C6E8d1F2a3B4c5D6e7F8A9000"))
}

func TestAddressNonHexCharacters(t *testing.T) {
	assert.False(t, IsWellFormedAddress("0xZZ5C1a7E2d9F0b3A4C6E8d1F2a3B4c5D6e7F8A90"))
}

func TestAddressEmpty(t *testing.T) {
	assert.False(t, IsWellFormedAddress(""))
}

func TestAddressZeroSentinelIsStillWellFormed(t *testing.T) {
	// The zero address is syntactically fine; deployment checks live elsewhere.
	assert.True(t, IsWellFormedAddress("0x0000000000000000000000000000000000000000"))
}

// ---------------------------------------------------------------------------
// IsAllowedRPCURL
// ---------------------------------------------------------------------------

func TestRPCURLAllowedSubdomain(t *testing.T) {
	assert.True(t, IsAllowedRPCURL("https://rpc1.monad.xyz"))
	assert.True(t, IsAllowedRPCURL("https://testnet-rpc.monad.xyz"))
	assert.True(t, IsAllowedRPCURL("https://sepolia.gateway.tenderly.co"))
}

func TestRPCURLAllowedExactHost(t *testing.T) {
	assert.True(t, IsAllowedRPCURL("https://sepolia.org"))
}

func TestRPCURLAllowedWithPath(t *testing.T) {
	assert.True(t, IsAllowedRPCURL("https://arb1.arbitrum.io/rpc"))
}

func TestRPCURLRejectsHTTP(t *testing.T) {
	assert.False(t, IsAllowedRPCURL("http://rpc1.monad.xyz"))
}

func TestRPCURLRejectsUnknownHost(t *testing.T) {
	assert.False(t, IsAllowedRPCURL("https://evil.example.com"))
}

func TestRPCURLRejectsSuffixTrick(t *testing.T) {
	// Host merely ending in an allowed name must not pass.
	assert.False(t, IsAllowedRPCURL("https://notmonad.xyz"))
	assert.False(t, IsAllowedRPCURL("https://monad.xyz.evil.com"))
}

func TestRPCURLRejectsEmptyAndRelative(t *testing.T) {
	assert.False(t, IsAllowedRPCURL(""))
	assert.False(t, IsAllowedRPCURL("rpc1.monad.xyz"))
}

// ---------------------------------------------------------------------------
// IsWellFormedABI
// ---------------------------------------------------------------------------

func TestABIValid(t *testing.T) {
	abi := `[{"name":"getVotes","type":"function"},{"name":"Voted","type":"event"}]`
	assert.True(t, IsWellFormedABI([]byte(abi)))
}

func TestABIRejectsEmptyArray(t *testing.T) {
	assert.False(t, IsWellFormedABI([]byte(`[]`)))
}

func TestABIRejectsUnknownEntryType(t *testing.T) {
	assert.False(t, IsWellFormedABI([]byte(`[{"name":"x","type":"gadget"}]`)))
}

func TestABIRejectsNonArray(t *testing.T) {
	assert.False(t, IsWellFormedABI([]byte(`{"name":"x","type":"function"}`)))
}

func TestABIRejectsMalformedJSON(t *testing.T) {
	assert.False(t, IsWellFormedABI([]byte(`[{"name":`)))
}

// ---------------------------------------------------------------------------
// SanitizeDisplayText
// ---------------------------------------------------------------------------

func TestSanitizeStripsMarkup(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", SanitizeDisplayText("<script>alert(1)</script>"))
}

func TestSanitizeStripsSchemes(t *testing.T) {
	assert.Equal(t, "alert(1)", SanitizeDisplayText("javascript:alert(1)"))
	assert.Equal(t, "text", SanitizeDisplayText("DATA : text"))
}

func TestSanitizeStripsEventHandlers(t *testing.T) {
	out := SanitizeDisplayText(`img onerror= x`)
	assert.NotContains(t, out, "onerror")
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("a", 500)
	assert.Len(t, SanitizeDisplayText(long), maxDisplayLen)
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the length limit must be dropped whole,
	// not split into an invalid byte.
	long := strings.Repeat("a", maxDisplayLen-1) + "é" + strings.Repeat("b", 50)
	out := SanitizeDisplayText(long)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), maxDisplayLen)
	assert.Equal(t, strings.Repeat("a", maxDisplayLen-1), out)
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "hello", SanitizeDisplayText("  hello  "))
}

func TestSanitizePlainTextUntouched(t *testing.T) {
	assert.Equal(t, "execution reverted: cooldown active", SanitizeDisplayText("execution reverted: cooldown active"))
}

// ---------------------------------------------------------------------------
// ClampCountdown
// ---------------------------------------------------------------------------

func TestClampCountdownNegative(t *testing.T) {
	assert.Equal(t, int64(0), ClampCountdown(-5))
}

func TestClampCountdownAbsurdlyLarge(t *testing.T) {
	assert.Equal(t, MaxCountdownSeconds, ClampCountdown(99_999_999_999))
}

func TestClampCountdownInRange(t *testing.T) {
	assert.Equal(t, int64(3600), ClampCountdown(3600))
}

func TestClampCountdownBounds(t *testing.T) {
	assert.Equal(t, int64(0), ClampCountdown(0))
	assert.Equal(t, MaxCountdownSeconds, ClampCountdown(MaxCountdownSeconds))
}

// ---------------------------------------------------------------------------
// SafeIntFromWide
// ---------------------------------------------------------------------------

func TestSafeIntNil(t *testing.T) {
	assert.Equal(t, int64(0), SafeIntFromWide(nil))
}

func TestSafeIntNegative(t *testing.T) {
	assert.Equal(t, int64(0), SafeIntFromWide(big.NewInt(-42)))
}

func TestSafeIntInRange(t *testing.T) {
	assert.Equal(t, int64(12345), SafeIntFromWide(big.NewInt(12345)))
}

func TestSafeIntAtLimit(t *testing.T) {
	assert.Equal(t, MaxSafeInteger, SafeIntFromWide(big.NewInt(MaxSafeInteger)))
}

func TestSafeIntClampsWiderThan53Bits(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 60)
	assert.Equal(t, MaxSafeInteger, SafeIntFromWide(wide))
}

func TestSafeIntClampsWiderThan64Bits(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 200)
	assert.Equal(t, MaxSafeInteger, SafeIntFromWide(wide))
}
