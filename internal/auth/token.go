// Package auth issues and validates the two JWT credentials the service
// uses: long-lived session tokens and ten-minute identity-verification
// tokens.  Tokens are stateless: validity is purely a function of the
// HS256 signature and the embedded expiry, there is no server-side table.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusops/lab-seat-registration/internal/model"
)

// Token purposes.  The purpose claim is what keeps the two token kinds
// from being interchangeable: a verification token presented where a
// session token is expected fails with ErrPurposeMismatch even though its
// signature and expiry are fine.
const (
	PurposeSession      = "session"
	PurposeVerification = "dob-verification"
)

var (
	// ErrTokenExpired is returned when a token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for bad signatures, malformed tokens
	// and unexpected signing methods.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrPurposeMismatch is returned when a structurally valid token
	// carries the wrong purpose claim for the endpoint.
	ErrPurposeMismatch = errors.New("wrong token type")
)

// Claims is the signed payload carried by both token kinds.  Subject holds
// the principal ID as a decimal string (RegisteredClaims convention).
type Claims struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Service signs and validates tokens with a shared secret.  The secret is
// enforced non-empty at construction; a missing secret is a configuration
// fault that must abort startup, not surface per request.
type Service struct {
	secret     []byte
	sessionTTL time.Duration
	verifyTTL  time.Duration
}

// NewService builds a token service.  It returns an error when the secret
// is empty so main can fail fast.
func NewService(secret string, sessionTTL, verifyTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	return &Service{secret: []byte(secret), sessionTTL: sessionTTL, verifyTTL: verifyTTL}, nil
}

// Issued pairs a serialized token with its expiry instant.
type Issued struct {
	Token string
	Exp   time.Time
}

// IssueSession signs a session token for an active principal.  It embeds
// email and role so the session validator can authorize without a second
// lookup for role checks.
func (s *Service) IssueSession(p *model.Principal) (Issued, error) {
	return s.issue(p, PurposeSession, s.sessionTTL)
}

// IssueVerification signs a short-lived identity-verification token.  The
// caller must have confirmed the principal's date of birth first; this
// token grants a password reset without a password, which is why its
// lifetime is deliberately much shorter than a session's.
func (s *Service) IssueVerification(p *model.Principal) (Issued, error) {
	return s.issue(p, PurposeVerification, s.verifyTTL)
}

func (s *Service) issue(p *model.Principal, purpose string, ttl time.Duration) (Issued, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Email:   p.Email,
		Role:    p.Role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: signed, Exp: exp}, nil
}

// Validate parses raw and checks signature, expiry and purpose, in that
// order of precedence: an expired token reports ErrTokenExpired even if
// its purpose would also have been wrong.
func (s *Service) Validate(raw, wantPurpose string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != wantPurpose {
		return nil, ErrPurposeMismatch
	}
	return claims, nil
}

// PrincipalID decodes the subject claim back into a numeric ID.
func (c *Claims) PrincipalID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}
