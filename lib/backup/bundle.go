// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/passvault/lib/codec"
	"github.com/bureau-foundation/passvault/lib/secret"
)

// Plaintext layout inside the age file:
//
//	[4B "PVBK"][1B format version][1B compression][4B body size, big endian][body]
//
// The body is a CBOR bundle, compressed as the header says.
var magic = []byte("PVBK")

const (
	formatVersion = 1
	headerSize    = 10
)

// bundle is the CBOR document a backup carries.
type bundle struct {
	Version   int     `cbor:"1,keyasint"`
	CreatedAt int64   `cbor:"2,keyasint"`
	Entries   []entry `cbor:"3,keyasint"`
	Checksum  []byte  `cbor:"4,keyasint"`
}

// entry holds one record with its secret in plaintext.
type entry struct {
	Site      string `cbor:"1,keyasint"`
	URL       string `cbor:"2,keyasint"`
	Login     string `cbor:"3,keyasint"`
	Secret    []byte `cbor:"4,keyasint"`
	CreatedAt int64  `cbor:"5,keyasint"`
	UpdatedAt int64  `cbor:"6,keyasint"`
}

func checksum(entries []entry) ([]byte, error) {
	encoded, err := codec.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("backup: encoding entries: %w", err)
	}
	defer secret.Zero(encoded)
	sum := blake3.Sum256(encoded)
	return sum[:], nil
}

// pack encodes b and frames it with the header.
func pack(b *bundle, compression Compression) ([]byte, error) {
	body, err := codec.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("backup: encoding bundle: %w", err)
	}
	defer secret.Zero(body)

	compressed, used, err := compress(body, compression)
	if err != nil {
		return nil, err
	}

	framed := make([]byte, headerSize, headerSize+len(compressed))
	copy(framed, magic)
	framed[4] = formatVersion
	framed[5] = byte(used)
	binary.BigEndian.PutUint32(framed[6:], uint32(len(body)))
	return append(framed, compressed...), nil
}

// unpack validates the header, decompresses and decodes the bundle,
// and checks its checksum.
func unpack(data []byte) (*bundle, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("backup: not a passvault backup")
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("backup: unsupported format version %d", data[4])
	}
	size := int(binary.BigEndian.Uint32(data[6:headerSize]))

	body, err := decompress(data[headerSize:], Compression(data[5]), size)
	if err != nil {
		return nil, err
	}

	var b bundle
	if err := codec.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("backup: decoding bundle: %w", err)
	}
	if b.Version != formatVersion {
		return nil, fmt.Errorf("backup: bundle version %d does not match header", b.Version)
	}
	sum, err := checksum(b.Entries)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sum, b.Checksum) {
		return nil, fmt.Errorf("backup: checksum mismatch")
	}
	return &b, nil
}
