package pool

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"strings"
	"time"
)

const inviteCodeLength = 10

// InviteCoder derives invite codes from a pool's id and creation time.
type InviteCoder struct {
	secret []byte
}

func NewInviteCoder(secret string) *InviteCoder {
	return &InviteCoder{secret: []byte(secret)}
}

func (c *InviteCoder) Code(p Pool) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(p.ID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(p.CreatedAt.UTC().Format(time.RFC3339Nano)))
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(mac.Sum(nil))
	return encoded[:inviteCodeLength]
}

// Check compares digests of both codes so timing does not depend on the guess.
func (c *InviteCoder) Check(p Pool, code string) bool {
	want := sha256.Sum256([]byte(c.Code(p)))
	got := sha256.Sum256([]byte(strings.ToUpper(strings.TrimSpace(code))))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}
