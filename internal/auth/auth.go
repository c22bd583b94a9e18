package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const (
	CookieName    = "bolao_session"
	SessionExpiry = 12 * time.Hour

	// LoginBurst attempts are allowed at once, refilled one every LoginInterval
	LoginBurst    = 10
	LoginInterval = 2 * time.Second
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Paddock words for password generation
var paddockWords = []string{
	"pitlane", "apex", "chicane", "grid", "podium",
	"slipstream", "undercut", "overcut", "paddock", "kerb",
	"hairpin", "sector", "stint", "compound", "parc",
	"ferme", "pole", "marshal", "drs", "safety",
}

// Auth handles admin authentication
type Auth struct {
	hash     []byte
	sessions map[string]time.Time
	mu       sync.RWMutex
	limiter  *rate.Limiter
	now      func() time.Time
}

// New creates a new Auth instance with the given password. Only the bcrypt
// hash is kept; a password bcrypt rejects (over 72 bytes) never logs in.
func New(password string) *Auth {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return &Auth{
		hash:     hash,
		sessions: make(map[string]time.Time),
		limiter:  rate.NewLimiter(rate.Every(LoginInterval), LoginBurst),
		now:      time.Now,
	}
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		words[i] = paddockWords[randomInt(len(paddockWords))]
	}
	return strings.Join(words, "-")
}

// Login validates the password and returns a new session token
func (a *Auth) Login(password string) (string, error) {
	if !a.limiter.Allow() {
		return "", ErrTooManyAttempts
	}
	if a.hash == nil || bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return "", ErrInvalidPassword
	}

	token := generateToken()
	now := a.now()
	a.mu.Lock()
	for t, expiry := range a.sessions {
		if now.After(expiry) {
			delete(a.sessions, t)
		}
	}
	a.sessions[token] = now.Add(SessionExpiry)
	a.mu.Unlock()

	return token, nil
}

// Logout invalidates a session token
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ValidateSession checks if a session token is valid
func (a *Auth) ValidateSession(token string) bool {
	a.mu.RLock()
	expiry, exists := a.sessions[token]
	a.mu.RUnlock()

	if !exists {
		return false
	}

	if a.now().After(expiry) {
		a.mu.Lock()
		delete(a.sessions, token)
		a.mu.Unlock()
		return false
	}

	return true
}

// GetSessionFromRequest extracts and validates the session from a request
func (a *Auth) GetSessionFromRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return a.ValidateSession(cookie.Value)
}

// RequireAuthAPI middleware for admin endpoints (returns 401)
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.GetSessionFromRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
	})
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateToken creates a random session token
func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// randomInt returns a uniformly random int in [0, max)
func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
