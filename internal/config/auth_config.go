package config

import "time"

type AuthConfig interface {
	GetBaseURL() string
	GetLoginPath() string
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetRecordTTL() time.Duration
	GetCheckTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetRequestTimeout() time.Duration
	GetKeepaliveInterval() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetBaseURL returns the base URL of the admin backend API
// (e.g., "https://api.example.com")
func (Auth) GetBaseURL() string {
	return GetEnv("ADMIN_API_BASE_URL", "http://localhost:8080")
}

// GetLoginPath returns the path unauthenticated requests are redirected to
func (Auth) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/login")
}

func (Auth) GetAccessCookieName() string {
	return GetEnv("ACCESS_COOKIE_NAME", "accessToken")
}

func (Auth) GetRefreshCookieName() string {
	return GetEnv("REFRESH_COOKIE_NAME", "refreshToken")
}

// GetRecordTTL is how long a confirmed login-status record stays fresh
func (Auth) GetRecordTTL() time.Duration {
	return 30 * time.Minute
}

func (Auth) GetCheckTimeout() time.Duration {
	return 5 * time.Second
}

func (Auth) GetRefreshTimeout() time.Duration {
	return 8 * time.Second
}

func (Auth) GetRequestTimeout() time.Duration {
	return 15 * time.Second
}

// GetKeepaliveInterval is how often an active session re-validates its
// access cookie in the background
func (Auth) GetKeepaliveInterval() time.Duration {
	return 5 * time.Minute
}
