package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtIssuer          = "gains"
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour
	bcryptRounds       = 12
)

// Local is the self-hosted email/password backend: bcrypt-hashed credentials
// and HS256 access/refresh token pairs.
type Local struct {
	secret            []byte
	allowRegistration bool
	now               func() time.Time
}

func NewLocal(secret []byte, allowRegistration bool) *Local {
	return &Local{secret: secret, allowRegistration: allowRegistration, now: time.Now}
}

func (l *Local) Provider() string { return "local" }

// RegistrationEnabled reports whether self-service account creation is on.
func (l *Local) RegistrationEnabled() bool { return l.allowRegistration }

// TokenPair is the login/register/refresh response body.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IssueTokens signs a fresh access/refresh pair for the given account.
func (l *Local) IssueTokens(subject, email, displayName string) (TokenPair, error) {
	now := l.now()

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                subject,
		"email":              email,
		"preferred_username": displayName,
		"type":               "access",
		"iss":                jwtIssuer,
		"iat":                now.Unix(),
		"exp":                now.Add(accessTokenExpiry).Unix(),
	}).SignedString(l.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"type": "refresh",
		"iss":  jwtIssuer,
		"iat":  now.Unix(),
		"exp":  now.Add(refreshTokenExpiry).Unix(),
	}).SignedString(l.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("signing refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks an access token and returns the caller's identity.
func (l *Local) Verify(_ context.Context, token string) (Identity, error) {
	claims, err := l.parse(token, "access")
	if err != nil {
		return Identity{}, err
	}
	id := Identity{Subject: claims["sub"].(string)}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["preferred_username"].(string); ok {
		id.DisplayName = v
	}
	return id, nil
}

// VerifyRefresh checks a refresh token and returns its subject.
func (l *Local) VerifyRefresh(token string) (string, error) {
	claims, err := l.parse(token, "refresh")
	if err != nil {
		return "", err
	}
	return claims["sub"].(string), nil
}

func (l *Local) parse(token, wantType string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); iss != jwtIssuer {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return nil, ErrInvalidToken
	}
	if _, ok := claims["sub"].(string); !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword bcrypt-hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptRounds)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
