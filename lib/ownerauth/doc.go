// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ownerauth decides whether an HTTP request comes from the
// vault owner.
//
// There is one owner and one password. The password is configured as
// a bcrypt hash (OWNER_PASSWORD_HASH); [HashPassword] produces one.
// A successful [Authenticator.Login] sets a session cookie encoded
// with gorilla/securecookie: authenticated with HMAC-SHA256 and
// encrypted with AES-256, using keys the keyring derives from
// SIGNING_KEY. The cookie carries only its issue time. Sessions end
// after the configured TTL or on [Authenticator.Logout].
//
// [Authenticator.RequireOwner] wraps owner-only handlers and answers
// 401 before the wrapped handler runs, so no owner code path (and no
// decryption) is reached without a valid session.
package ownerauth
