package secure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stamper signs and verifies the per-request HMAC stamp carried next to the
// session cookie. The stamp binds the session token to a timestamp so a
// leaked cookie alone cannot be replayed outside the window.
type Stamper struct {
	key    []byte
	maxAge time.Duration
}

// NewStamper builds a Stamper. maxAge bounds how old a stamp may be.
func NewStamper(key string, maxAge time.Duration) *Stamper {
	return &Stamper{key: []byte(key), maxAge: maxAge}
}

// Sign produces "unix-ts:hex(hmac(token|ts))".
func (s *Stamper) Sign(sessionToken string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return ts + ":" + s.digest(sessionToken, ts)
}

// Verify checks the stamp signature and age against now.
func (s *Stamper) Verify(sessionToken, stamp string, now time.Time) error {
	ts, sig, ok := strings.Cut(stamp, ":")
	if !ok || ts == "" || sig == "" {
		return fmt.Errorf("malformed stamp")
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed stamp timestamp")
	}
	at := time.Unix(unix, 0)
	if now.Sub(at) > s.maxAge || at.Sub(now) > time.Minute {
		return fmt.Errorf("stamp expired")
	}
	expect := s.digest(sessionToken, ts)
	if !hmac.Equal([]byte(expect), []byte(sig)) {
		return fmt.Errorf("stamp signature mismatch")
	}
	return nil
}

func (s *Stamper) digest(token, ts string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(token))
	mac.Write([]byte("|"))
	mac.Write([]byte(ts))
	return hex.EncodeToString(mac.Sum(nil))
}
