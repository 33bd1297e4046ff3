package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const TokenTypeAgent = "agent"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims identify the out-of-band agent that posts discovered cards and
// drives the admin surface.
type Claims struct {
	Agent     string `json:"agent"`
	TokenType string `json:"token_type"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiredAt time.Time `json:"expired_at"`

	jwtlib.RegisteredClaims
}

type Service interface {
	GenerateAgentToken(agent string, expiresIn time.Duration) (string, error)
	ValidateToken(tokenString string) (Claims, error)
}

type HMACService struct {
	secret []byte

	now func() time.Time
}

func NewHMACService(secret string) *HMACService {
	return &HMACService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (s *HMACService) GenerateAgentToken(agent string, expiresIn time.Duration) (string, error) {
	if len(s.secret) == 0 || expiresIn <= 0 {
		return "", ErrTokenInvalid
	}

	now := s.now()
	exp := now.Add(expiresIn)

	c := Claims{
		Agent:     agent,
		TokenType: TokenTypeAgent,
		IssuedAt:  now.UTC(),
		ExpiredAt: exp.UTC(),
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now.UTC()),
			ExpiresAt: jwtlib.NewNumericDate(exp.UTC()),
			Subject:   agent,
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}

func (s *HMACService) ValidateToken(tokenString string) (Claims, error) {
	p := jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	now := s.now().UTC()
	if !c.ExpiredAt.IsZero() && now.After(c.ExpiredAt.UTC()) {
		return Claims{}, ErrTokenExpired
	}

	if c.TokenType != TokenTypeAgent {
		return Claims{}, ErrTokenInvalid
	}

	return c, nil
}
