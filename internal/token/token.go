// Package token issues and resolves the signed access links that let a
// candidate or a committee member reach a review record without login.
//
// A token always binds the candidate's primary email, never the recipient's
// own address: one token per workflow step re-identifies the same record no
// matter which party clicks the link. The trade-off is that the server
// cannot tell which referent acted from the token alone.
package token

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nboulif/doctrack/internal/models"
	mongorepo "github.com/nboulif/doctrack/internal/repositories/mongo"
	"github.com/nboulif/doctrack/internal/utils"
)

// DefaultTTL is deliberately long: a review cycle can span months.
const DefaultTTL = 2 * 365 * 24 * time.Hour

type Claims struct {
	Email string           `json:"email"` // candidate primary email
	Role  models.TokenRole `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	candidates mongorepo.CandidateRepository
	tokens     mongorepo.TokenRepository
	secret     []byte
	ttl        time.Duration
	log        *logrus.Logger

	now func() time.Time // test clock
}

func NewIssuer(candidates mongorepo.CandidateRepository, tokens mongorepo.TokenRepository, secret string, ttl time.Duration, log *logrus.Logger) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logrus.New()
	}
	return &Issuer{
		candidates: candidates,
		tokens:     tokens,
		secret:     []byte(secret),
		ttl:        ttl,
		log:        log,
		now:        time.Now,
	}
}

// Issue resolves the given address against any email bound to a candidate
// (primary or committee member) and returns a signed token embedding the
// candidate's primary email. NotFound when no candidate matches.
func (i *Issuer) Issue(ctx context.Context, boundEmail string) (string, error) {
	const op = "token.Issuer.Issue"

	bound := utils.NormalizeEmail(boundEmail)
	if bound == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "an email address is required", nil)
	}

	cand, err := i.candidates.GetByAnyEmail(ctx, bound)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) || err == utils.ErrNotFound {
			return "", utils.E(utils.CodeNotFound, op, "no candidate bound to this email", err)
		}
		return "", utils.E(utils.CodeInternal, op, "candidate lookup failed", err)
	}

	role := models.TokenRoleReferent
	if bound == cand.Email {
		role = models.TokenRoleCandidate
	}

	now := i.now().UTC()
	expires := now.Add(i.ttl)
	// the jti keeps two tokens minted in the same second distinct
	tokenID := uuid.NewString()
	claims := Claims{
		Email: cand.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   cand.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}

	record := &models.ReviewToken{
		ID:        tokenID,
		Value:     signed,
		Email:     cand.Email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := i.tokens.Create(ctx, record); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to persist token", err)
	}
	return signed, nil
}

// Verify validates signature and expiry. It never returns an error: any
// failure class collapses to ok=false, with the cause logged.
func (i *Issuer) Verify(raw string) (*Claims, bool) {
	raw = cleanRaw(raw)
	if raw == "" {
		return nil, false
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil || tok == nil || !tok.Valid {
		i.log.WithError(err).Debug("token verification failed")
		return nil, false
	}
	if claims.Email == "" {
		i.log.Debug("token has no bound email")
		return nil, false
	}
	return claims, true
}

// Resolve verifies the token and looks up the embedded candidate email.
// Both invalid-token and candidate-gone return (nil, nil); the two paths
// are distinguished in logs only.
func (i *Issuer) Resolve(ctx context.Context, raw string) (*models.Candidate, error) {
	const op = "token.Issuer.Resolve"

	claims, ok := i.Verify(raw)
	if !ok {
		i.log.Debug("resolve: invalid token")
		return nil, nil
	}

	// a valid signature is not enough: the token must still be on record,
	// so deleting the record revokes the link
	if _, err := i.tokens.GetByValue(ctx, cleanRaw(raw)); err != nil {
		if err == utils.ErrNotFound {
			i.log.Debug("resolve: token not on record")
			return nil, nil
		}
		return nil, utils.E(utils.CodeInternal, op, "token lookup failed", err)
	}

	cand, err := i.candidates.GetByEmail(ctx, claims.Email)
	if err != nil {
		if err == utils.ErrNotFound || utils.IsCode(err, utils.CodeNotFound) {
			i.log.WithField("email", claims.Email).Debug("resolve: candidate no longer exists")
			return nil, nil
		}
		return nil, utils.E(utils.CodeInternal, op, "candidate lookup failed", err)
	}
	return cand, nil
}

// cleanRaw strips whitespace and invisible runes that leak from copy-pasted
// links before the JWT parser sees the value.
func cleanRaw(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00a0':
			return -1
		}
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
}
