// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a bundle body is compressed. The value
// is stored in the backup header, so existing values never change.
type Compression uint8

const (
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block mode. Fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level. Better ratio for
	// the mostly-text bundle.
	CompressionZstd Compression = 2
)

// maxBundleSize caps the declared uncompressed size so a crafted
// header cannot force a huge allocation.
const maxBundleSize = 256 << 20

var errIncompressible = errors.New("data is incompressible")

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("backup: unknown compression %q", name)
	}
}

// compress returns data compressed with the requested algorithm and
// the algorithm actually used. Incompressible data falls back to
// CompressionNone.
func compress(data []byte, requested Compression) ([]byte, Compression, error) {
	var (
		compressed []byte
		err        error
	)
	switch requested {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("backup: unsupported compression %d", requested)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, requested, nil
}

// decompress reverses compress. The result must be exactly size
// bytes long.
func decompress(compressed []byte, tag Compression, size int) ([]byte, error) {
	if size > maxBundleSize {
		return nil, fmt.Errorf("backup: declared size %d exceeds limit", size)
	}
	switch tag {
	case CompressionNone:
		if len(compressed) != size {
			return nil, fmt.Errorf("backup: body is %d bytes, header says %d", len(compressed), size)
		}
		return compressed, nil
	case CompressionLZ4:
		return decompressLZ4(compressed, size)
	case CompressionZstd:
		return decompressZstd(compressed, size)
	default:
		return nil, fmt.Errorf("backup: unsupported compression %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// Zero means lz4 gave up on the block.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBundleSize))
	if err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}
