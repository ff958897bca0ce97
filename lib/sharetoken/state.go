// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharetoken

import "errors"

// State is a token's position in its lifecycle as seen by a verifier.
// A token moves from Valid to Expired as time passes and never moves
// back. Strings that were never issued by the key are Malformed
// regardless of time.
type State int

const (
	StateMalformed State = iota
	StateValid
	StateExpired
)

// String returns the lowercase name used in metrics labels and API
// responses.
func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "malformed"
	}
}

// StateOf classifies the error returned by Verify. Any error other
// than ErrExpired is Malformed.
func StateOf(err error) State {
	switch {
	case err == nil:
		return StateValid
	case errors.Is(err, ErrExpired):
		return StateExpired
	default:
		return StateMalformed
	}
}
