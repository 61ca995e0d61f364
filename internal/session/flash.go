package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// FlashCookie is the cookie carrying a one-shot message across a redirect.
const FlashCookie = "leafcheck_flash"

const defaultFlashTTL = 5 * time.Minute

type flashClaims struct {
	Message string `json:"msg"`
	jwt.RegisteredClaims
}

// Flash stores short user messages in an HMAC-signed cookie so that they
// survive a post/redirect/get round trip and are shown exactly once.
type Flash struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewFlash returns a Flash signing with secret.
func NewFlash(secret string) (*Flash, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("flash secret must not be empty")
	}
	return &Flash{secret: []byte(secret), ttl: defaultFlashTTL, now: time.Now}, nil
}

// Set attaches message to the response.
func (f *Flash) Set(c *gin.Context, message string) error {
	now := f.now()
	claims := flashClaims{
		Message: message,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, signed, int(f.ttl/time.Second), "/", "", false, true)
	return nil
}

// Pop returns the pending message, if any, and clears the cookie. Tampered
// or expired cookies are dropped silently.
func (f *Flash) Pop(c *gin.Context) string {
	raw, err := c.Cookie(FlashCookie)
	if err != nil || raw == "" {
		return ""
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, "", -1, "/", "", false, true)

	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return f.secret, nil
	}, jwt.WithTimeFunc(f.now))
	if err != nil || !token.Valid {
		return ""
	}
	return claims.Message
}
