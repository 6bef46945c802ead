package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodePayload decodes one raw upstream payload. Numbers are kept as
// json.Number so that long identifiers survive and so that every caller
// hashes the same canonical form.
func DecodePayload(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to decode payload: unexpected data after JSON value")
	}
	return raw, nil
}
