package utils

import (
	"crypto/rand"
	"math/big"
)

const randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString returns a random string of the given length drawn from
// a crypto/rand source. Used for password salts and generated secrets.
func GenerateRandomString(length int) string {
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(randomCharset))))
		if err != nil {
			// crypto/rand failure means the platform RNG is broken
			panic(err)
		}
		result[i] = randomCharset[n.Int64()]
	}
	return string(result)
}
