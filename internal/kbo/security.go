// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kbo

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tokenLifetime is the validity window of the WS-Security timestamp.
const tokenLifetime = 5 * time.Minute

const timestampLayout = "2006-01-02T15:04:05Z"

// usernameToken carries the WS-Security header values for one request.
type usernameToken struct {
	Username    string
	Digest      string
	Nonce       string
	Created     string
	Expires     string
	TokenID     string
	TimestampID string
}

// newUsernameToken builds a PasswordDigest token: the digest is
// base64(sha1(nonce || created || password)) over the raw nonce bytes.
func newUsernameToken(username, password string, now time.Time, random io.Reader) (usernameToken, error) {
	nonce := make([]byte, 16)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return usernameToken{}, fmt.Errorf("generating nonce: %w", err)
	}
	now = now.UTC()
	created := now.Format(timestampLayout)
	return usernameToken{
		Username:    username,
		Digest:      passwordDigest(nonce, created, password),
		Nonce:       base64.StdEncoding.EncodeToString(nonce),
		Created:     created,
		Expires:     now.Add(tokenLifetime).Format(timestampLayout),
		TokenID:     "UsernameToken-" + hexID(),
		TimestampID: "TS-" + hexID(),
	}, nil
}

func passwordDigest(nonce []byte, created, password string) string {
	h := sha1.New()
	h.Write(nonce)
	h.Write([]byte(created))
	h.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// hexID returns 32 upper-case hex digits.
func hexID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
