package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOtp(t *testing.T) {
	otp := GenerateOtp(6)
	assert.Len(t, otp, 6)
	for _, r := range otp {
		assert.True(t, r >= '0' && r <= '9', "otp contains non-digit: %q", otp)
	}

	// Two consecutive codes should practically never collide
	assert.NotEqual(t, GenerateOtp(12), GenerateOtp(12))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "buy milk", SanitizeText("  buy milk "))
	assert.Equal(t, "bold move", SanitizeText("<b>bold</b> move"))
	assert.NotContains(t, SanitizeText(`<img src=x onerror=alert(1)>due today`), "<img")
}
