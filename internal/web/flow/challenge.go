package flow

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
)

// DefaultChallengeTTL bounds how long a user may sit on an OTP step.
const DefaultChallengeTTL = 10 * time.Minute

// Kind identifies which flow a challenge belongs to.
type Kind string

const (
	KindLogin    Kind = "login"
	KindRegister Kind = "register"
	KindReset    Kind = "reset"
)

// Step is the position within a flow.
type Step int

const (
	StepCredentials Step = iota
	StepOTP
	StepNewPassword
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepOTP:
		return "otp"
	case StepNewPassword:
		return "new_password"
	default:
		return "unknown"
	}
}

// Challenge is the transient state between "credentials accepted" and
// "OTP verified". It lives only in process memory.
type Challenge struct {
	Kind     Kind
	Step     Step
	Email    string
	UserID   blogsdk.UserID
	OTP      string // reset only, set once the code was accepted
	IssuedAt time.Time
}

type challengeKey struct {
	session string
	kind    Kind
}

// ChallengeCache holds at most one challenge per browser session and flow.
// Entries expire after ttl. Safe for concurrent use.
type ChallengeCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[challengeKey]Challenge
}

// NewChallengeCache creates a cache; ttl <= 0 uses DefaultChallengeTTL.
func NewChallengeCache(ttl time.Duration) *ChallengeCache {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[challengeKey]Challenge),
	}
}

// Put stores c for session, replacing any earlier challenge of the same kind.
// IssuedAt is stamped when zero.
func (c *ChallengeCache) Put(session string, ch Challenge) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch.IssuedAt.IsZero() {
		ch.IssuedAt = c.now()
	}
	c.items[challengeKey{session, ch.Kind}] = ch
}

// Get returns the live challenge of kind for session.
func (c *ChallengeCache) Get(session string, kind Kind) (Challenge, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := challengeKey{session, kind}
	ch, ok := c.items[k]
	if !ok {
		return Challenge{}, false
	}
	if c.expired(ch) {
		delete(c.items, k)
		return Challenge{}, false
	}
	return ch, true
}

// Delete drops the challenge of kind for session.
func (c *ChallengeCache) Delete(session string, kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, challengeKey{session, kind})
}

// DeleteSession drops every challenge for session.
func (c *ChallengeCache) DeleteSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if k.session == session {
			delete(c.items, k)
		}
	}
}

// Sweep removes expired challenges and reports how many went.
func (c *ChallengeCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, ch := range c.items {
		if c.expired(ch) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored challenges, expired or not.
func (c *ChallengeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *ChallengeCache) expired(ch Challenge) bool {
	return c.now().Sub(ch.IssuedAt) > c.ttl
}
