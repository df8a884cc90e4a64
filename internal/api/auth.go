package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"innkeep/internal/config"

	"golang.org/x/time/rate"
)

var errPermissionDenied = fmt.Errorf("permission denied")

// HTTPAuth provides API-key auth and per-key rate limiting.
type HTTPAuth struct {
	auth      config.AuthConfig
	rateLimit config.RateLimitConfig
	clients   map[string]config.ClientKey
	limiters  sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(auth config.AuthConfig, rateLimit config.RateLimitConfig) *HTTPAuth {
	clients := make(map[string]config.ClientKey, len(auth.APIKeys))
	for _, k := range auth.APIKeys {
		clients[k.Key] = k
	}
	return &HTTPAuth{auth: auth, rateLimit: rateLimit, clients: clients}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The health probe stays open for the load balancer.
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if a.auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerName()))
	if apiKey == "" {
		return fmt.Errorf("missing api key")
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return fmt.Errorf("invalid api key")
	}
	return a.checkPermissions(client, r)
}

// checkPermissions enforces read/write scopes. A key with no explicit
// permissions may do everything.
func (a *HTTPAuth) checkPermissions(client config.ClientKey, r *http.Request) error {
	if len(client.Permissions) == 0 {
		return nil
	}

	required := "write"
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		required = "read"
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.rateLimit.RPS <= 0 {
		return nil
	}

	lim := a.getLimiter(a.clientKey(r))
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

// clientKey identifies the caller for rate limiting: the api key when
// present, the remote host otherwise.
func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerName())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) headerName() string {
	header := strings.TrimSpace(strings.ToLower(a.auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}
	return header
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.rateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.rateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
