package service

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Purpose scopes a one-time code so a login code cannot verify an email.
type Purpose string

const (
	PurposeLogin       Purpose = "login"
	PurposeVerifyEmail Purpose = "verify-email"
	PurposeReset       Purpose = "password-reset"
)

// DefaultCodeTTL is how long an issued code stays valid.
const DefaultCodeTTL = 10 * time.Minute

type codeKey struct {
	purpose Purpose
	subject string
}

type issuedCode struct {
	secret   string
	issuedAt time.Time
}

// Codes issues and checks six-digit one-time codes. Each code is a TOTP
// over a fresh per-issue secret with a step as long as the TTL. With Static
// set every code is that value instead, which is what end-to-end tests use.
type Codes struct {
	Static string
	TTL    time.Duration

	mu     sync.Mutex
	issued map[codeKey]issuedCode
	now    func() time.Time
}

func NewCodes(static string, ttl time.Duration) *Codes {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &Codes{
		Static: static,
		TTL:    ttl,
		issued: map[codeKey]issuedCode{},
		now:    time.Now,
	}
}

func (c *Codes) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(c.TTL / time.Second),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Issue creates a code for subject, replacing any earlier one.
func (c *Codes) Issue(p Purpose, subject string) (string, error) {
	now := c.now()

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "quill-devapi",
		AccountName: subject,
		Period:      uint(c.TTL / time.Second),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp secret: %w", err)
	}

	code := c.Static
	if code == "" {
		code, err = totp.GenerateCodeCustom(key.Secret(), now, c.opts())
		if err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
	}

	c.mu.Lock()
	c.issued[codeKey{p, subject}] = issuedCode{secret: key.Secret(), issuedAt: now}
	c.mu.Unlock()

	return code, nil
}

// Check reports whether code is the live code for subject. It does not
// consume it; call Forget once the code has done its job.
func (c *Codes) Check(p Purpose, subject, code string) bool {
	c.mu.Lock()
	ic, ok := c.issued[codeKey{p, subject}]
	c.mu.Unlock()

	now := c.now()
	if !ok || now.Sub(ic.issuedAt) > c.TTL || code == "" {
		return false
	}

	if c.Static != "" {
		return subtle.ConstantTimeCompare([]byte(code), []byte(c.Static)) == 1
	}

	valid, err := totp.ValidateCustom(code, ic.secret, now, c.opts())
	return err == nil && valid
}

func (c *Codes) Forget(p Purpose, subject string) {
	c.mu.Lock()
	delete(c.issued, codeKey{p, subject})
	c.mu.Unlock()
}

// Sweep drops expired codes.
func (c *Codes) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, ic := range c.issued {
		if now.Sub(ic.issuedAt) > c.TTL {
			delete(c.issued, k)
			n++
		}
	}
	return n
}
