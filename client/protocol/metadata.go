package protocol

import (
	"encoding/base64"
	"strings"
)

// keyReplacer strips the characters the Upload-Metadata grammar uses as
// separators. The rewrite is lossy: "file name" and "filename" collide.
var keyReplacer = strings.NewReplacer(" ", "", ",", "")

// EncodeMetadata renders pairs as an Upload-Metadata value: each pair
// becomes "key base64(value)", joined by commas, in the given order.
func EncodeMetadata(pairs ...Pair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		key := keyReplacer.Replace(p.Key)
		parts = append(parts, key+" "+base64.StdEncoding.EncodeToString([]byte(p.Value)))
	}

	return strings.Join(parts, ",")
}

// DecodeMetadata parses an Upload-Metadata value. Keys without a value
// decode to an empty string.
func DecodeMetadata(header string) ([]Pair, error) {
	if strings.TrimSpace(header) == "" {
		return nil, nil
	}

	var pairs []Pair
	for _, element := range strings.Split(header, ",") {
		key, encoded, _ := strings.Cut(strings.TrimSpace(element), " ")
		if key == "" {
			return nil, &Error{Op: "decode metadata", Header: HeaderUploadMetadata, Err: ErrInvalidHeader}
		}

		value, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return nil, &Error{Op: "decode metadata", Header: HeaderUploadMetadata, Body: key, Err: ErrInvalidHeader}
		}

		pairs = append(pairs, Pair{Key: key, Value: string(value)})
	}

	return pairs, nil
}
