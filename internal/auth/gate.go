package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/unitdesk/internal/observability"
	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// Checker validates override credentials for protected mutations.
type Checker interface {
	Check(creds *Credentials) error
}

// Gate is a static shared-secret check against a primary and an optional
// alternate credential pair. It issues no session: callers present
// credentials with every protected call. There is no attempt counter or
// lockout; repeated failures are only throttled by the HTTP rate limiter.
type Gate struct {
	pairs   []Pair
	metrics *observability.Metrics
}

// NewGate builds a gate from the configured pairs, ignoring blank ones.
func NewGate(metrics *observability.Metrics, pairs ...Pair) *Gate {
	g := &Gate{metrics: metrics}
	for _, p := range pairs {
		if p.configured() {
			g.pairs = append(g.pairs, Pair{Username: strings.TrimSpace(p.Username), Password: p.Password})
		}
	}
	return g
}

// Check returns nil when creds match any configured pair and a generic
// authorization error otherwise.
func (g *Gate) Check(creds *Credentials) error {
	if g == nil {
		return shared.Unauthorized("auth.check")
	}
	ok := g.match(creds)
	g.metrics.ObserveGateCheck(ok)
	if !ok {
		return shared.Unauthorized("auth.check")
	}
	return nil
}

func (g *Gate) match(creds *Credentials) bool {
	if g == nil || creds == nil || creds.Username == "" || creds.Password == "" {
		return false
	}
	matched := false
	// every pair is compared so timing does not reveal which one matched
	for _, p := range g.pairs {
		userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(creds.Username)), []byte(p.Username)) == 1
		passOK := comparePassword(p.Password, creds.Password)
		if userOK && passOK {
			matched = true
		}
	}
	return matched
}

func comparePassword(configured, supplied string) bool {
	if hash, ok := strings.CutPrefix(configured, bcryptPrefix); ok {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}
