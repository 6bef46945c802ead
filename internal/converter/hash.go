package converter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// RawHash returns the hex SHA-256 of the payload's canonical JSON encoding.
// encoding/json sorts map keys, so equal payloads hash equally regardless of
// their original key order. It returns nil when the payload cannot be
// encoded.
func RawHash(raw any) (hash *string) {
	defer func() {
		if r := recover(); r != nil {
			hash = nil
		}
	}()

	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	return &digest
}
