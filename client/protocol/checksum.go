package protocol

import (
	"crypto/sha1"
	"encoding/base64"
)

// Checksum returns the Upload-Checksum value for b:
// "sha1 " followed by the standard base64 encoding of the digest.
func Checksum(b []byte) string {
	sum := sha1.Sum(b)

	return ChecksumAlgorithm + " " + base64.StdEncoding.EncodeToString(sum[:])
}
