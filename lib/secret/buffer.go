// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrEmpty is returned when a buffer would hold zero bytes.
var ErrEmpty = errors.New("secret: empty source")

// Buffer is a fixed-size region of locked, non-dumpable memory.
// A Buffer must not be copied after creation.
type Buffer struct {
	mu     sync.Mutex
	region []byte
	closed bool
}

// New maps a zero-filled region of size bytes. The caller owns the
// Buffer and must Close it.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: size must be positive, got %d", size)
	}

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap %d bytes: %w", size, err)
	}
	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}
	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(region)
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP): %w", err)
	}

	return &Buffer{region: region}, nil
}

// NewFromBytes copies source into a new Buffer and zeroes source in
// place, so the heap copy does not outlive the call.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, ErrEmpty
	}
	buffer, err := New(len(source))
	if err != nil {
		Zero(source)
		return nil, err
	}
	copy(buffer.region, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the protected region itself. The slice must not be
// retained past Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("secret: use of closed buffer")
	}
	return b.region
}

// Len returns the size of the region, or 0 after Close.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.region)
}

// Equal reports whether both buffers hold the same bytes, in constant
// time with respect to the contents.
func (b *Buffer) Equal(other *Buffer) bool {
	return subtle.ConstantTimeCompare(b.Bytes(), other.Bytes()) == 1
}

// Close zeroes the region, then unlocks and unmaps it.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.region)
	var errs []error
	if err := unix.Munlock(b.region); err != nil {
		errs = append(errs, fmt.Errorf("secret: munlock: %w", err))
	}
	if err := unix.Munmap(b.region); err != nil {
		errs = append(errs, fmt.Errorf("secret: munmap: %w", err))
	}
	b.region = nil
	return errors.Join(errs...)
}

// Zero overwrites data with zeros.
func Zero(data []byte) {
	clear(data)
}
