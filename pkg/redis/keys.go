package redis

import "strings"

const keyNamespace = "lcc"

const (
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	lockPrefix        = "lock"
	sessionPrefix     = "session"
)

// Key joins parts under the lcc namespace, skipping blanks.
func Key(parts ...string) string {
	out := []string{keyNamespace}
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return Key(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return Key(rateLimitPrefix, scope)
}

func (c *Client) LockKey(name string) string {
	return Key(lockPrefix, name)
}

// AccessSessionKey addresses the refresh session bound to an access token jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return Key(sessionPrefix, "access", accessID)
}
