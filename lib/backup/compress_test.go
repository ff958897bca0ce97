// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	text := bytes.Repeat([]byte("site=example.com login=owner "), 200)

	for _, tag := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, used, err := compress(text, tag)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			if used != tag {
				t.Errorf("used = %s, want %s", used, tag)
			}
			if tag != CompressionNone && len(compressed) >= len(text) {
				t.Errorf("compressed %d bytes to %d", len(text), len(compressed))
			}
			restored, err := decompress(compressed, used, len(text))
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			if !bytes.Equal(restored, text) {
				t.Error("round trip changed the data")
			}
		})
	}
}

func TestCompressIncompressibleFallsBack(t *testing.T) {
	random := make([]byte, 4096)
	rand.Read(random)

	for _, tag := range []Compression{CompressionLZ4, CompressionZstd} {
		compressed, used, err := compress(random, tag)
		if err != nil {
			t.Fatalf("compress(%s): %v", tag, err)
		}
		if used != CompressionNone {
			t.Errorf("compress(%s) used %s for random data, want none", tag, used)
		}
		if !bytes.Equal(compressed, random) {
			t.Errorf("compress(%s) altered incompressible data", tag)
		}
	}
}

func TestDecompressRejectsOversize(t *testing.T) {
	if _, err := decompress(nil, CompressionZstd, maxBundleSize+1); err == nil {
		t.Fatal("decompress accepted a size over the limit")
	}
}

func TestParseCompression(t *testing.T) {
	for _, tag := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompression(tag.String())
		if err != nil || parsed != tag {
			t.Errorf("ParseCompression(%q) = %v, %v", tag.String(), parsed, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression accepted gzip")
	}
	if got := Compression(9).String(); got != "unknown(9)" {
		t.Errorf("String() = %q", got)
	}
}
