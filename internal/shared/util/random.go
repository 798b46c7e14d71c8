package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomName returns a random alphanumeric string of length n, used as the
// on-disk name for stored certificate files.
func RandomName(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand exhaustion is effectively fatal; fall back to a
			// timestamp so the caller still gets a usable name.
			ts := fmt.Sprintf("%020d", time.Now().UnixNano())
			for len(ts) < n {
				ts += ts
			}
			return ts[:n]
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out)
}
