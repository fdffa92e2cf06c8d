package captcha

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/muhdb91/therinproperty/internal/config"
)

// IVerifier issues and checks the arithmetic human-verification challenge.
// This is a low-assurance bot deterrent, not a security control: the
// answer is the sum of two small random integers.
type IVerifier interface {
	Issue() (Challenge, error)
	Verify(token string, answer int) error
}

// Challenge carries the two operands shown to the visitor and a signed
// token binding their sum, so the server stays stateless between issue and
// submit.
type Challenge struct {
	A     int    `json:"a"`
	B     int    `json:"b"`
	Token string `json:"token"`
}

var (
	// ErrMismatch means the submitted answer does not equal the sum.
	ErrMismatch = errors.New("captcha answer mismatch")
	// ErrInvalidToken means the challenge token is missing, expired or
	// tampered with.
	ErrInvalidToken = errors.New("invalid captcha token")
)

// challengeClaims is the signed payload of a challenge token.
type challengeClaims struct {
	Sum                  int `json:"sum"`
	jwt.RegisteredClaims     // Use standard JWT package type
}

type verifier struct {
	cfg *config.Config
}

// NewVerifier creates an arithmetic challenge verifier.
func NewVerifier(cfg *config.Config) IVerifier {
	return &verifier{cfg: cfg}
}

// Issue creates a new challenge with two small random integers.
func (v *verifier) Issue() (Challenge, error) {
	a := rand.Intn(9) + 1
	b := rand.Intn(9) + 1

	expirationTime := time.Now().Add(v.cfg.CaptchaTokenTTL)
	claims := &challengeClaims{
		Sum: a + b,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "therin-captcha",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(v.cfg.CaptchaSecret))
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to sign challenge token: %w", err)
	}
	return Challenge{A: a, B: b, Token: tokenString}, nil
}

// Verify checks the token signature and expiry, then the answer against the
// bound sum.
func (v *verifier) Verify(tokenString string, answer int) error {
	claims := &challengeClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.cfg.CaptchaSecret), nil
	})

	if err != nil || !token.Valid {
		log.Printf("Invalid captcha token: %v", err)
		return ErrInvalidToken
	}

	if claims.Sum != answer {
		return ErrMismatch
	}
	return nil
}
