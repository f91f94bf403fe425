package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/quill/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimit is a token bucket refilled at Requests per Per, holding at most
// Burst tokens.
type RateLimit struct {
	Name     string
	Requests int
	Per      time.Duration
	Burst    int
}

// Every returns the interval between refilled tokens.
func (l RateLimit) Every() time.Duration {
	if l.Requests <= 0 {
		return l.Per
	}
	return l.Per / time.Duration(l.Requests)
}

// Profiles shared by the front end and the development API. Each can be
// tuned with RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST.
var (
	// LoginLimit guards password and one-time code submissions.
	LoginLimit = LimitFromEnv(RateLimit{Name: "login", Requests: 5, Per: time.Minute, Burst: 5})

	// FormLimit covers the other anonymous forms (register, reset requests).
	FormLimit = LimitFromEnv(RateLimit{Name: "form", Requests: 20, Per: time.Minute, Burst: 20})

	// AccountLimit covers writes by signed-in users.
	AccountLimit = LimitFromEnv(RateLimit{Name: "account", Requests: 20, Per: time.Minute, Burst: 20})

	// APILimit covers the development API's auth and user endpoints.
	APILimit = LimitFromEnv(RateLimit{Name: "api", Requests: 100, Per: time.Minute, Burst: 100})

	// ReadLimit covers public reads.
	ReadLimit = LimitFromEnv(RateLimit{Name: "read", Requests: 1000, Per: time.Minute, Burst: 1000})
)

// LimitFromEnv applies RATELIMIT_<NAME>_* overrides to def. Missing,
// malformed or non-positive values leave the default in place.
func LimitFromEnv(def RateLimit) RateLimit {
	prefix := "RATELIMIT_" + strings.ToUpper(def.Name) + "_"
	positive := func(key string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv(prefix + key))
		return n, err == nil && n > 0
	}

	if n, ok := positive("REQUESTS"); ok {
		def.Requests = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		def.Per = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		def.Burst = n
	}
	return def
}

// KeyFunc groups requests into buckets. An empty key skips limiting.
type KeyFunc func(*http.Request) string

// ClientIP is the first X-Forwarded-For hop, then X-Real-IP, then the peer
// address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SignedInUser keys on the user id set by Authn.
func SignedInUser(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// FormField keys on a normalised form value, such as the email being tried.
func FormField(name string) KeyFunc {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(r.FormValue(name)))
	}
}

// JoinKeys concatenates the non-empty keys of fns with "|".
func JoinKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, "|")
	}
}

// Rejector writes the response for a limited request.
type Rejector func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// LimitOption customises Limit.
type LimitOption func(*limitOptions)

type limitOptions struct {
	reject  Rejector
	idleTTL time.Duration
	now     func() time.Time
}

// WithRejector replaces the JSON 429 body, e.g. to re-render an HTML form.
func WithRejector(fn Rejector) LimitOption {
	return func(o *limitOptions) { o.reject = fn }
}

// WithIdleTTL sets how long an unused bucket is kept (default: 10m).
func WithIdleTTL(d time.Duration) LimitOption {
	return func(o *limitOptions) { o.idleTTL = d }
}

func rejectJSON(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
	WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":  "rate_limit_exceeded",
		"detail": "Too many requests. Please try again later.",
	})
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key and drops keys idle for longer than ttl.
type buckets struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(l RateLimit, ttl time.Duration, now time.Time) *buckets {
	return &buckets{
		limit:     rate.Every(l.Every()),
		burst:     l.Burst,
		ttl:       ttl,
		byKey:     make(map[string]*bucket),
		lastSweep: now,
	}
}

// take reports whether key may proceed at now, and otherwise how long until
// it may.
func (b *buckets) take(key string, now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= b.ttl {
		for k, bk := range b.byKey {
			if now.Sub(bk.lastSeen) >= b.ttl {
				delete(b.byKey, k)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now

	if bk.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := bk.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byKey)
}

// Limit rejects requests once the bucket for their key is empty.
func Limit(l RateLimit, key KeyFunc, opts ...LimitOption) Middleware {
	o := limitOptions{reject: rejectJSON, idleTTL: 10 * time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	set := newBuckets(l, o.idleTTL, o.now())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := set.take(k, o.now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retry := max(wait.Round(time.Second), time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Requests))
			w.Header().Set("X-RateLimit-Window", l.Per.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"limit", l.Name,
				"path", r.URL.Path,
				"retry_after", retry,
			)
			o.reject(w, r, retry)
		})
	}
}

// LimitByIP limits each client address.
func LimitByIP(l RateLimit, opts ...LimitOption) Middleware {
	return Limit(l, ClientIP, opts...)
}

// LimitByUser limits each signed-in user from each address. Anonymous
// requests fall back to the address alone.
func LimitByUser(l RateLimit, opts ...LimitOption) Middleware {
	return Limit(l, JoinKeys(SignedInUser, ClientIP), opts...)
}

// LimitByIPAndField limits each address per value of a form field, so one
// client cannot hammer a single account.
func LimitByIPAndField(l RateLimit, field string, opts ...LimitOption) Middleware {
	return Limit(l, JoinKeys(ClientIP, FormField(field)), opts...)
}
