package catalog

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Apple Music developer tokens may live for at most 180 days.
const tokenLifetime = 180 * 24 * time.Hour

// tokenRenewalBuffer forces regeneration an hour before actual expiry.
const tokenRenewalBuffer = time.Hour

// TokenProvider supplies the bearer credential for catalog requests.
type TokenProvider interface {
	Token() (string, error)
}

// StaticTokenProvider returns a pre-generated developer token as-is.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Token() (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("developer token not configured")
	}
	return p.token, nil
}

// GeneratedTokenProvider signs ES256 developer tokens from an Apple .p8
// private key and caches them in memory until shortly before expiry.
type GeneratedTokenProvider struct {
	teamID  string
	keyID   string
	keyPath string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewGeneratedTokenProvider(teamID, keyID, keyPath string) (*GeneratedTokenProvider, error) {
	if teamID == "" || keyID == "" {
		return nil, fmt.Errorf("apple team id and key id are required")
	}
	if keyPath == "" {
		return nil, fmt.Errorf("apple private key path is required")
	}
	return &GeneratedTokenProvider{teamID: teamID, keyID: keyID, keyPath: keyPath}, nil
}

func (p *GeneratedTokenProvider) Token() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.token != "" && now.Before(p.expiresAt.Add(-tokenRenewalBuffer)) {
		return p.token, nil
	}

	key, err := p.loadPrivateKey()
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(tokenLifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    p.teamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = p.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}

	p.token = signed
	p.expiresAt = expiresAt

	return signed, nil
}

func (p *GeneratedTokenProvider) loadPrivateKey() (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return key, nil
}
