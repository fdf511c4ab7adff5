// Package speech issues short-lived bearer tokens for the browser's
// speech-to-text session. Tokens are valid for ~10 minutes upstream; we cache
// one token per process with a soft expiry and share it through redis when
// available so other instances skip the fetch.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/medscribe/medscribe/internal/platform/cache"
)

// ErrNotConfigured is returned when the speech upstream has no credentials.
var ErrNotConfigured = errors.New("speech: token service not configured")

const (
	// TokenValidity is the upstream token lifetime.
	TokenValidity = 10 * time.Minute
	// SoftExpiry is how long we trust a cached token. Shorter than the
	// upstream validity so callers never receive a nearly-dead token.
	SoftExpiry = 8*time.Minute + 30*time.Second

	cacheKey = "speech_token"
)

// Token is a bearer token scoped to a region.
type Token struct {
	Token     string    `json:"token"`
	Region    string    `json:"region"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider fetches and caches speech tokens. The in-memory slot is guarded by
// a mutex, so concurrent callers on one instance share a single fetch.
type Provider struct {
	key      string
	region   string
	endpoint string // overridable in tests
	http     *http.Client
	cache    *cache.Client

	mu    sync.Mutex
	token string
	until time.Time
}

// NewProvider creates a Provider. key/region may be empty, in which case
// every call returns ErrNotConfigured.
func NewProvider(key, region string, c *cache.Client) *Provider {
	endpoint := ""
	if region != "" {
		endpoint = fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", region)
	}
	return &Provider{
		key:      key,
		region:   region,
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    c,
	}
}

// Configured reports whether the provider can issue tokens.
func (p *Provider) Configured() bool {
	return p.key != "" && p.region != ""
}

// Get returns a valid token, serving from the cache slot when it is within
// the soft expiry. userID and role are forwarded as identity headers for
// upstream authorization.
func (p *Provider) Get(ctx context.Context, userID, role string) (*Token, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if p.token != "" && now.Before(p.until) {
		return &Token{Token: p.token, Region: p.region, ExpiresAt: p.until}, nil
	}

	if data, _ := p.cache.Get(ctx, cacheKey); len(data) > 0 {
		p.token = string(data)
		p.until = now.Add(SoftExpiry)
		return &Token{Token: p.token, Region: p.region, ExpiresAt: p.until}, nil
	}

	token, err := p.fetch(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	p.token = token
	p.until = now.Add(SoftExpiry)
	_ = p.cache.Set(ctx, cacheKey, []byte(token), SoftExpiry)

	return &Token{Token: token, Region: p.region, ExpiresAt: p.until}, nil
}

func (p *Provider) fetch(ctx context.Context, userID, role string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("speech: build token request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-User-Role", role)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech: token service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("speech: read token response: %w", err)
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", fmt.Errorf("speech: token service returned an empty token")
	}
	return token, nil
}

// Invalidate clears the cached slot, forcing the next Get to fetch.
func (p *Provider) Invalidate(ctx context.Context) {
	p.mu.Lock()
	p.token = ""
	p.until = time.Time{}
	p.mu.Unlock()
	_ = p.cache.Delete(ctx, cacheKey)
}
