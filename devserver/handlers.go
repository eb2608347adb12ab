package devserver

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type findEmailRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type findEmailResponse struct {
	Email string `json:"email"`
}

type findPasswordRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// LoginHandler authenticates an account: 200 sets the session cookies,
// 401 means wrong credentials, 403 means the account is not an admin.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request loginRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		account, ok := s.accounts[request.Email]
		if !ok || !CheckPasswordHash(request.Password, account.PasswordHash) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if !account.Admin {
			writeError(w, http.StatusForbidden, "not an admin account")
			return
		}

		accessToken, err := s.mintAccessToken(account.Email)
		if err != nil {
			s.log.Err(err).Msg("failed to mint access token")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.setSessionCookies(w, accessToken, s.issueRefreshToken(account.Email))
		s.log.Info().Str("email", account.Email).Msg("admin login")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

// CheckHandler returns 200 when the current access cookie is valid.
func (s *Server) CheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.accessCookie)
		if err != nil || !s.validateAccessToken(cookie.Value) {
			writeError(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

// RefreshHandler rotates the refresh token and mints a new access cookie.
// An unknown or already-used refresh cookie yields 401.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.refreshCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "missing refresh token")
			return
		}
		email, ok := s.consumeRefreshToken(cookie.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		accessToken, err := s.mintAccessToken(email)
		if err != nil {
			s.log.Err(err).Msg("failed to mint access token")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.setSessionCookies(w, accessToken, s.issueRefreshToken(email))
		s.log.Debug().Str("email", email).Msg("session refreshed")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

// LogoutHandler invalidates the refresh token and expires both cookies.
// Always 200; logout is best effort by contract.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(s.refreshCookie); err == nil {
			s.dropRefreshToken(cookie.Value)
		}
		s.clearSessionCookies(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

// AdminPageHandler is the admin landing page. It carries no auth logic of
// its own; admission is decided by the middleware it is mounted behind.
func (s *Server) AdminPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "admin console"})
	}
}

// LoginPageHandler is the page unauthenticated admin requests are
// redirected to.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "log in with the console login command"})
	}
}

// FindEmailHandler returns the admin email registered for a phone number.
// Unknown numbers and non-admin accounts both yield 403 so account
// existence is not leaked.
func (s *Server) FindEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request findEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		account, ok := s.accountByPhone(request.PhoneNumber)
		if !ok || !account.Admin {
			writeError(w, http.StatusForbidden, "not an admin account")
			return
		}
		writeJSON(w, http.StatusOK, findEmailResponse{Email: account.Email})
	}
}

// FindPasswordHandler verifies a phone/email pair before a password reset:
// 400 when the phone number does not match the account, 403 for unknown or
// non-admin accounts.
func (s *Server) FindPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request findPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		account, ok := s.accounts[request.Email]
		if !ok || !account.Admin {
			writeError(w, http.StatusForbidden, "not an admin account")
			return
		}
		if account.PhoneNumber != request.PhoneNumber {
			writeError(w, http.StatusBadRequest, "phone number does not match")
			return
		}
		s.log.Info().Str("email", account.Email).Msg("password reset verified")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}
