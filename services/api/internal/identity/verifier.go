// Package identity turns an Authorization header into a verified principal.
// Verification never fails a request: a bad or missing token yields an
// Unverified result and the caller decides what that means.
package identity

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/shared/pkg/metrics"
)

const BearerPrefix = "Bearer "

const (
	ReasonMissingBearer = "missing_bearer"
	ReasonInvalidToken  = "invalid_token"
	ReasonMissingEmail  = "missing_email"
)

type Status int

const (
	Unverified Status = iota
	Verified
)

func (s Status) String() string {
	if s == Verified {
		return "verified"
	}
	return "unverified"
}

// Result is the outcome of Verify. Email is set only when Status is Verified.
type Result struct {
	Status Status
	Email  string
	Reason string
}

func VerifiedAs(email string) Result { return Result{Status: Verified, Email: email} }

func UnverifiedBecause(reason string) Result { return Result{Status: Unverified, Reason: reason} }

// Principal returns the verified email, if any.
func (r Result) Principal() (string, bool) {
	if r.Status != Verified || r.Email == "" {
		return "", false
	}
	return r.Email, true
}

type Claims struct {
	Subject string
	Email   string
}

// TokenVerifier is the external trust authority that validates raw tokens.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (Claims, error)
}

type Verifier struct {
	Tokens TokenVerifier
	Log    zerolog.Logger
}

func (v *Verifier) Verify(ctx context.Context, header string) Result {
	res := v.verify(ctx, header)
	metrics.IdentityVerifications.WithLabelValues(res.Status.String()).Inc()
	return res
}

func (v *Verifier) verify(ctx context.Context, header string) Result {
	if !strings.HasPrefix(header, BearerPrefix) {
		return UnverifiedBecause(ReasonMissingBearer)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return UnverifiedBecause(ReasonMissingBearer)
	}
	claims, err := v.Tokens.VerifyToken(ctx, token)
	if err != nil {
		v.Log.Debug().Str("reason", ReasonInvalidToken).Msg("token verification failed")
		return UnverifiedBecause(ReasonInvalidToken)
	}
	if claims.Email == "" {
		v.Log.Debug().Str("reason", ReasonMissingEmail).Str("sub", claims.Subject).Msg("token has no email claim")
		return UnverifiedBecause(ReasonMissingEmail)
	}
	return VerifiedAs(claims.Email)
}
