package devserver

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const tokenIssuer = "admin-console-devserver"

// mintAccessToken creates a signed access token for the account. The
// console treats the value as opaque; the JWT form just lets the devserver
// validate without server-side access-token state.
func (s *Server) mintAccessToken(email string) (string, error) {
	now := s.nowTime()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "[Server.mintAccessToken] SignedString")
	}
	return signed, nil
}

// validateAccessToken checks the signature and expiry of an access token.
func (s *Server) validateAccessToken(raw string) bool {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.nowTime))
	return err == nil && token.Valid
}

// issueRefreshToken creates and stores a new opaque refresh token.
func (s *Server) issueRefreshToken(email string) string {
	token := uuid.New().String()
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	s.refreshTokens[token] = email
	return token
}

// consumeRefreshToken validates and deletes a refresh token, returning the
// account email it was issued for. Deleting implements rotation: a used
// token is never valid twice.
func (s *Server) consumeRefreshToken(token string) (string, bool) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	email, ok := s.refreshTokens[token]
	if ok {
		delete(s.refreshTokens, token)
	}
	return email, ok
}

func (s *Server) dropRefreshToken(token string) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	delete(s.refreshTokens, token)
}

// setSessionCookies writes fresh access and refresh cookies on a login or
// refresh response.
func (s *Server) setSessionCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	now := s.nowTime()
	http.SetCookie(w, &http.Cookie{
		Name:     s.accessCookie,
		Value:    accessToken,
		Path:     "/",
		Expires:  now.Add(s.accessTTL),
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookie,
		Value:    refreshToken,
		Path:     "/",
		Expires:  now.Add(s.refreshTTL),
		HttpOnly: true,
	})
}

// clearSessionCookies expires both cookies on a logout response.
func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookie, s.refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}
