package auth

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Reason says why the gate rejected a request.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonTokenMissing Reason = "token_missing"
	ReasonTokenInvalid Reason = "token_invalid"
	ReasonTokenExpired Reason = "token_expired"
)

// resultAuthorized labels admitted requests in metrics.
const resultAuthorized = "authorized"

// Identity is what protected operations learn about the caller.
type Identity struct {
	UserID   int64
	Username string
}

// AuthResult is either Authorized with an Identity or rejected with a Reason.
type AuthResult struct {
	Identity
	Authorized bool
	Reason     Reason
}

// Err returns the sentinel matching a rejection, or nil when authorized.
// Expired and invalid tokens stay distinct here; transports decide how much
// of that to show.
func (r AuthResult) Err() error {
	switch {
	case r.Authorized:
		return nil
	case r.Reason == ReasonTokenMissing:
		return common.ErrTokenMissing
	case r.Reason == ReasonTokenExpired:
		return common.ErrTokenExpired
	default:
		return common.ErrInvalidToken
	}
}

// TokenVerifier decodes and validates an access token.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// DecisionObserver is told about every gate decision.
type DecisionObserver interface {
	ObserveGateDecision(result string)
}

// Gate is the admission checkpoint for protected operations.
type Gate struct {
	verifier TokenVerifier
	observer DecisionObserver
}

type GateOption func(*Gate)

func WithObserver(o DecisionObserver) GateOption {
	return func(g *Gate) { g.observer = o }
}

func NewGate(v TokenVerifier, opts ...GateOption) *Gate {
	g := &Gate{verifier: v}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize decides on the raw Authorization header value. Both a bare
// token and "Bearer <token>" are accepted.
func (g *Gate) Authorize(header string) AuthResult {
	res := g.authorize(header)

	if g.observer != nil {
		if res.Authorized {
			g.observer.ObserveGateDecision(resultAuthorized)
		} else {
			g.observer.ObserveGateDecision(string(res.Reason))
		}
	}
	return res
}

func (g *Gate) authorize(header string) AuthResult {
	token := extractToken(header)
	if token == "" {
		return AuthResult{Reason: ReasonTokenMissing}
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return AuthResult{Reason: ReasonTokenExpired}
		}
		return AuthResult{Reason: ReasonTokenInvalid}
	}

	return AuthResult{
		Identity:   Identity{UserID: claims.UserID, Username: claims.Username},
		Authorized: true,
	}
}

func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len(common.BearerPrefix) && strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		header = strings.TrimSpace(header[len(common.BearerPrefix):])
	}
	return header
}
