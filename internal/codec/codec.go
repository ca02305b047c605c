// Package codec compresses opaque JSON payloads before they hit the
// database and restores them on read. Payload columns (complaint images,
// metadata, worker profiles, admin permissions) store the compressed bytes,
// never raw JSON.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/cleancity/complaint-server/internal/errs"
)

// Encode serializes v to JSON and gzips the result.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", errs.ErrEncode, err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("%w: compress: %v", errs.ErrEncode, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: compress: %v", errs.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Decode gunzips data and unmarshals the JSON into v. Corrupt or truncated
// bytes fail with errs.ErrDecode; the error always propagates to the caller.
func Decode(data []byte, v any) error {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: decompress: %v", errs.ErrDecode, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("%w: decompress: %v", errs.ErrDecode, err)
	}
	if err := zr.Close(); err != nil {
		return fmt.Errorf("%w: decompress: %v", errs.ErrDecode, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", errs.ErrDecode, err)
	}
	return nil
}

// EncodeString gzips a plain string without JSON framing.
func EncodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := io.WriteString(zw, s); err != nil {
		return nil, fmt.Errorf("%w: compress string: %v", errs.ErrEncode, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: compress string: %v", errs.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// DecodeString reverses EncodeString.
func DecodeString(data []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decompress string: %v", errs.ErrDecode, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: decompress string: %v", errs.ErrDecode, err)
	}
	return string(raw), nil
}
