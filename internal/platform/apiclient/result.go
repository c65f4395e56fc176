package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelopeKey is the field some endpoints wrap their payload in.
const envelopeKey = "data"

// Decode is the single result contract for JSON responses: the body is
// either the payload itself or an object carrying the payload under "data".
// An empty body decodes to the zero value.
func Decode[T any](raw []byte) (T, error) {
	var out T
	if err := decodeInto(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func decodeInto(raw []byte, out interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || out == nil {
		return nil
	}
	payload := unwrapEnvelope(raw)
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func unwrapEnvelope(raw []byte) []byte {
	if raw[0] != '{' {
		return raw
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	data, ok := env[envelopeKey]
	if !ok {
		return raw
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return raw
	}
	return data
}
