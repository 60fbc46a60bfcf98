package batchdata

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const makeBufferPrefix = "IMTBuffer"

// normalizePayload unwraps make.com scenario bodies that arrive as a JSON
// string of the form `IMTBuffer(n, binary, hex): 7b22...` instead of parsed
// JSON. Anything else passes through untouched and takes its chances with
// the array decode.
func normalizePayload(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return raw, nil
	}
	if !strings.HasPrefix(s, makeBufferPrefix) {
		return raw, nil
	}
	_, enc, ok := strings.Cut(s, ": ")
	if !ok {
		return nil, fmt.Errorf("%w: buffer string has no payload section", ErrMalformedPayload)
	}
	decoded, err := hex.DecodeString(enc)
	if err != nil || !utf8.Valid(decoded) {
		return nil, fmt.Errorf("%w: buffer payload is not valid JSON text", ErrMalformedPayload)
	}
	return decoded, nil
}
