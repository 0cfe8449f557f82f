package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandStr returns a random hex string of length n.
func RandStr(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)[:n]
}
