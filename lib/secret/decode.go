// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// base64Encodings lists the alphabets accepted by DecodeBase64, in the
// order they are tried. Keys generated by other tooling commonly use
// the URL-safe alphabet with padding; openssl and most shells emit the
// standard one.
var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// DecodeBase64 decodes text into a new Buffer. Surrounding whitespace
// is ignored. The intermediate heap slice is zeroed before return.
func DecodeBase64(text string) (*Buffer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}

	for _, encoding := range base64Encodings {
		decoded := make([]byte, encoding.DecodedLen(len(text)))
		length, err := encoding.Strict().Decode(decoded, []byte(text))
		if err != nil {
			Zero(decoded)
			continue
		}
		return NewFromBytes(decoded[:length])
	}
	return nil, fmt.Errorf("secret: value is not valid base64")
}
