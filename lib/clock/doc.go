// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable source of the current time.
//
// Share-token validity and owner-session lifetime are both pure
// functions of "now", so every component that needs the time takes a
// Clock instead of calling time.Now directly:
//
//	authority := sharetoken.NewAuthority(key, ttl, clock.Real())
//
// Tests pass a FakeClock and move it explicitly, which makes expiry
// boundaries exact instead of sleep-dependent:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	token, _, _ := authority.Issue()
//	c.Advance(11 * time.Second)
package clock
