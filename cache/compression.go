package cache

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
)

// CompressionCodec represents a value compression algorithm.
type CompressionCodec string

const (
	CompressionNone CompressionCodec = "none"
	CompressionGzip CompressionCodec = "gzip"
)

var (
	compressMagic = []byte("UZ1")

	ErrValueTooLarge      = errors.New("cache: value exceeds max size")
	ErrUnsupportedCodec   = errors.New("cache: unsupported compression codec")
	ErrCorruptCompression = errors.New("cache: corrupt compressed payload")
)

// ParseCompression maps a configuration value onto a codec.
func ParseCompression(value string) (CompressionCodec, error) {
	switch CompressionCodec(value) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip:
		return CompressionGzip, nil
	default:
		return "", ErrUnsupportedCodec
	}
}

func encodeValue(codec CompressionCodec, max int, value []byte) ([]byte, error) {
	if max > 0 && len(value) > max {
		return nil, ErrValueTooLarge
	}
	switch codec {
	case CompressionNone, "":
		return value, nil
	case CompressionGzip:
		var buf bytes.Buffer
		buf.Write(compressMagic)
		zw, _ := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if _, err := zw.Write(value); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		out := buf.Bytes()
		if max > 0 && len(out) > max {
			return nil, ErrValueTooLarge
		}
		return out, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// decodeValue passes through values that were written without compression.
func decodeValue(in []byte) ([]byte, error) {
	if !bytes.HasPrefix(in, compressMagic) {
		return in, nil
	}
	gr, err := gzip.NewReader(bytes.NewReader(in[len(compressMagic):]))
	if err != nil {
		return nil, ErrCorruptCompression
	}
	defer gr.Close()
	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, ErrCorruptCompression
	}
	return out, nil
}
