package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// PayloadEncoding tells how an outbox payload is stored.
type PayloadEncoding string

const (
	EncodingJSON PayloadEncoding = "json"
	EncodingZstd PayloadEncoding = "zstd"
)

// DefaultCompressThreshold is the payload size above which zstd is used.
const DefaultCompressThreshold = 8 * 1024

// PayloadCodec marshals payloads to JSON and compresses large ones.
// Safe for concurrent use.
type PayloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewPayloadCodec creates a codec. threshold <= 0 uses DefaultCompressThreshold.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &PayloadCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode marshals v and compresses it when it is larger than the threshold.
func (c *PayloadCodec) Encode(v any) ([]byte, PayloadEncoding, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload: %w", err)
	}
	if len(raw) <= c.threshold {
		return raw, EncodingJSON, nil
	}
	return c.encoder.EncodeAll(raw, nil), EncodingZstd, nil
}

// Decode returns the JSON bytes of a stored payload.
func (c *PayloadCodec) Decode(data []byte, enc PayloadEncoding) ([]byte, error) {
	switch enc {
	case EncodingJSON, "":
		return data, nil
	case EncodingZstd:
		out, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown payload encoding %q", enc)
	}
}

// Close releases the decoder.
func (c *PayloadCodec) Close() {
	c.decoder.Close()
}
