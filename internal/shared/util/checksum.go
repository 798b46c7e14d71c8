package util

import (
	"crypto/md5"
	"encoding/hex"
)

// Checksum returns the hex MD5 digest of the content. It is used for
// dedup and audit of uploaded files, not for anything security-sensitive.
func Checksum(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}
