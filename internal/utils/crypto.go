package utils

import (
	"crypto/rand"
	"math/big"
)

// GenerateOtp returns a random numeric code of the given length,
// e.g. "493027" for length 6. Leading zeros are allowed.
func GenerateOtp(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails if the system entropy source is broken
			panic(err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
