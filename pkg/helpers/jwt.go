package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrTokenType = errors.New("unexpected token type")

// JWTManager signs and parses HS256 tokens with one process-wide key.
type JWTManager struct {
	key []byte
	now func() time.Time
}

func NewJWTManager(signingKey string) *JWTManager {
	return &JWTManager{key: []byte(signingKey), now: time.Now}
}

// WithClock replaces the time source used for iat/exp and validation.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

func (m *JWTManager) Now() time.Time { return m.now() }

// Claims carries {user_id, token_type, jti, iat, exp}.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Generate mints a token of the given type with a fresh v7 jti.
func (m *JWTManager) Generate(userID, tokenType string, ttl time.Duration) (string, *Claims, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return "", nil, err
	}
	now := m.now().Truncate(time.Second)
	claims := &Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.key)
	if err != nil {
		return "", nil, err
	}
	return s, claims, nil
}

// Parse validates signature, iat and exp and checks the token type.
func (m *JWTManager) Parse(tokenStr, tokenType string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, ErrTokenType
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, errors.New("missing token claims")
	}
	return claims, nil
}
