package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidPayload = errors.New("invalid image payload")

// DecodeImagePayload accepts either a data URL (data:image/jpeg;base64,...) or plain base64
func DecodeImagePayload(payload string) ([]byte, error) {
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrInvalidPayload
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, ErrInvalidPayload
}
