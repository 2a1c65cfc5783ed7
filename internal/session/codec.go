package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	// CookieName is the name of the cookie holding the encoded session.
	CookieName = "user-auth-session"

	// TTL is the fixed lifetime of an issued session.
	TTL = 7 * 24 * time.Hour

	tokenIssuer = "staffdesk"
)

// Codec converts sessions to and from the session cookie.
// It holds no per-request state and is safe for concurrent use.
type Codec struct {
	secret  []byte
	secure  bool
	nowFunc func() time.Time
}

// Options configures a Codec.
type Options struct {
	// Secret is the HMAC key used to sign session tokens (at least 32 bytes).
	Secret []byte

	// Secure sets the Secure attribute on the cookie. Enabled in production.
	Secure bool
}

// NewCodec creates a session codec.
func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}

	return &Codec{
		secret:  opts.Secret,
		secure:  opts.Secure,
		nowFunc: time.Now,
	}, nil
}

type sessionClaims struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Encode produces the cookie value for s. The session must be complete.
func (c *Codec) Encode(s Session) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	now := c.nowFunc()
	claims := &sessionClaims{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Role:      s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return value, nil
}

// Decode parses a cookie value. Any malformed, tampered, expired or
// incomplete value yields an Invalid result; Decode never returns an error.
func (c *Codec) Decode(value string) Result {
	if value == "" {
		return Invalid("empty value")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Invalid("expired")
		}
		return Invalid(err.Error())
	}

	s := Session{
		ID:        claims.Subject,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
		Role:      claims.Role,
	}
	if err := s.Validate(); err != nil {
		return Invalid(err.Error())
	}

	return Valid(s)
}

// Issue sets the session cookie on the response. An error means the value
// could not be produced; callers treat it as fatal for the request.
func (c *Codec) Issue(w http.ResponseWriter, s Session) error {
	value, err := c.Encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TTL.Seconds()),
	})

	return nil
}

// Read returns the session carried by the request, or false when there is
// none. A malformed cookie is reported as no session and left in place;
// only Clear removes the cookie.
func (c *Codec) Read(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, false
	}

	result := c.Decode(cookie.Value)
	if !result.IsValid() {
		log.Debug().Str("reason", result.Reason()).Str("path", r.URL.Path).Msg("Ignoring invalid session cookie")
	}

	return result.Session()
}

// Clear expires the session cookie. Clearing an absent cookie is not an error.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
