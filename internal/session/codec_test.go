package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T, secure bool) *Codec {
	t.Helper()
	codec, err := NewCodec(Options{Secret: testSecret, Secure: secure})
	require.NoError(t, err)
	return codec
}

func newTestSession() Session {
	return Session{
		ID:        "019a0000-0000-7000-8000-000000000001",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      "admin",
	}
}

func requestWithCookies(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestNewCodec_ShortSecret(t *testing.T) {
	_, err := NewCodec(Options{Secret: []byte("short")})
	require.Error(t, err)
}

func TestCodec_IssueReadRoundTrip(t *testing.T) {
	codec := newTestCodec(t, false)

	for _, role := range []string{"admin", "employee"} {
		t.Run(role, func(t *testing.T) {
			s := newTestSession()
			s.Role = role

			rec := httptest.NewRecorder()
			require.NoError(t, codec.Issue(rec, s))

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)

			got, ok := codec.Read(requestWithCookies(cookies[0]))
			require.True(t, ok)
			require.Equal(t, s, got)
		})
	}
}

func TestCodec_IssueCookieAttributes(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
	}{
		{name: "development", secure: false},
		{name: "production", secure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := newTestCodec(t, tt.secure)
			rec := httptest.NewRecorder()
			require.NoError(t, codec.Issue(rec, newTestSession()))

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			c := cookies[0]
			require.Equal(t, CookieName, c.Name)
			require.Equal(t, "/", c.Path)
			require.Equal(t, 604800, c.MaxAge)
			require.True(t, c.HttpOnly)
			require.Equal(t, tt.secure, c.Secure)
			require.Equal(t, http.SameSiteLaxMode, c.SameSite)
		})
	}
}

func TestCodec_IssueIncompleteSession(t *testing.T) {
	codec := newTestCodec(t, false)

	s := newTestSession()
	s.Email = ""

	rec := httptest.NewRecorder()
	err := codec.Issue(rec, s)
	require.ErrorIs(t, err, ErrIncompleteSession)
	require.Empty(t, rec.Result().Cookies())
}

func TestCodec_ReadNoCookie(t *testing.T) {
	codec := newTestCodec(t, false)

	got, ok := codec.Read(requestWithCookies())
	require.False(t, ok)
	require.Equal(t, Session{}, got)
}

func TestCodec_ReadMalformed(t *testing.T) {
	codec := newTestCodec(t, false)

	other, err := NewCodec(Options{Secret: []byte("ffffffffffffffffffffffffffffffff")})
	require.NoError(t, err)
	foreign, err := other.Encode(newTestSession())
	require.NoError(t, err)

	valid, err := codec.Encode(newTestSession())
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{name: "garbage", value: "not-a-token"},
		{name: "json", value: `{"id":"1","role":"admin"}`},
		{name: "wrong key", value: foreign},
		{name: "truncated", value: valid[:len(valid)-4]},
		{name: "tampered payload", value: strings.Replace(valid, ".", ".x", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := requestWithCookies(&http.Cookie{Name: CookieName, Value: tt.value})

			got, ok := codec.Read(req)
			require.False(t, ok)
			require.Equal(t, Session{}, got)

			// reading never deletes the cookie
			require.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestCodec_DecodeMissingFields(t *testing.T) {
	codec := newTestCodec(t, false)
	now := time.Now()

	sign := func(claims *sessionClaims) string {
		claims.Issuer = tokenIssuer
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
		value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)
		return value
	}

	tests := []struct {
		name   string
		claims *sessionClaims
	}{
		{
			name:   "missing subject",
			claims: &sessionClaims{FirstName: "A", LastName: "B", Email: "a@b.c", Role: "admin"},
		},
		{
			name: "missing email",
			claims: &sessionClaims{FirstName: "A", LastName: "B", Role: "admin",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}},
		},
		{
			name: "unknown role",
			claims: &sessionClaims{FirstName: "A", LastName: "B", Email: "a@b.c", Role: "superuser",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := codec.Decode(sign(tt.claims))
			require.False(t, result.IsValid())
			require.NotEmpty(t, result.Reason())

			_, ok := result.Session()
			require.False(t, ok)
		})
	}
}

func TestCodec_DecodeExpired(t *testing.T) {
	codec := newTestCodec(t, false)

	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	codec.nowFunc = func() time.Time { return issued }
	value, err := codec.Encode(newTestSession())
	require.NoError(t, err)

	codec.nowFunc = func() time.Time { return issued.Add(TTL - time.Minute) }
	require.True(t, codec.Decode(value).IsValid())

	codec.nowFunc = func() time.Time { return issued.Add(TTL + time.Minute) }
	result := codec.Decode(value)
	require.False(t, result.IsValid())
	require.Equal(t, "expired", result.Reason())
}

func TestCodec_Clear(t *testing.T) {
	codec := newTestCodec(t, true)

	// twice: clearing is idempotent
	for range 2 {
		rec := httptest.NewRecorder()
		codec.Clear(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, CookieName, cookies[0].Name)
		require.Empty(t, cookies[0].Value)
		require.Less(t, cookies[0].MaxAge, 0)
		require.Equal(t, "/", cookies[0].Path)
	}
}

func TestContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := FromContext(req.Context())
	require.False(t, ok)

	s := newTestSession()
	got, ok := FromContext(NewContext(req.Context(), s))
	require.True(t, ok)
	require.Equal(t, s, got)
}

func TestCodec_ReadAfterClear(t *testing.T) {
	codec := newTestCodec(t, false)
	u, err := url.Parse("http://staffdesk.test/")
	require.NoError(t, err)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	issued := httptest.NewRecorder()
	require.NoError(t, codec.Issue(issued, newTestSession()))
	jar.SetCookies(u, issued.Result().Cookies())
	require.Len(t, jar.Cookies(u), 1)

	cleared := httptest.NewRecorder()
	codec.Clear(cleared)
	jar.SetCookies(u, cleared.Result().Cookies())

	_, ok := codec.Read(requestWithCookies(jar.Cookies(u)...))
	require.False(t, ok)
}
