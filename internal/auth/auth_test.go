package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	a := New("test-password")

	if a == nil {
		t.Fatal("expected auth to be created")
	}
	if string(a.hash) == "test-password" || len(a.hash) == 0 {
		t.Error("expected password to be stored as a hash")
	}
	if a.sessions == nil {
		t.Error("expected sessions map to be initialized")
	}
}

func TestGeneratePassword_Format(t *testing.T) {
	pw := GeneratePassword()

	parts := strings.Split(pw, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 words separated by dashes, got %d parts: %s", len(parts), pw)
	}
	for _, part := range parts {
		if !slices.Contains(paddockWords, part) {
			t.Errorf("word %q not in paddockWords list", part)
		}
	}
}

func TestGeneratePassword_Randomness(t *testing.T) {
	passwords := make(map[string]bool)
	for i := 0; i < 10; i++ {
		passwords[GeneratePassword()] = true
	}

	// 20 words over 3 positions; collisions across 10 draws are rare
	if len(passwords) < 3 {
		t.Errorf("expected more password variety, got only %d unique passwords", len(passwords))
	}
}

func TestLogin_ValidPassword(t *testing.T) {
	a := New("correct-password")

	token, err := a.Login("correct-password")

	if err != nil {
		t.Errorf("expected login to succeed with correct password, got %v", err)
	}
	if len(token) != 64 { // 32 bytes = 64 hex chars
		t.Errorf("expected 64-char token, got %d chars", len(token))
	}
}

func TestLogin_InvalidPassword(t *testing.T) {
	a := New("correct-password")

	token, err := a.Login("wrong-password")

	if !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
	if token != "" {
		t.Error("expected empty token on failed login")
	}
}

func TestLogin_RateLimited(t *testing.T) {
	a := New("password")

	for i := 0; i < LoginBurst; i++ {
		if _, err := a.Login("guess"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("attempt %d: expected ErrInvalidPassword, got %v", i, err)
		}
	}

	if _, err := a.Login("password"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts once the burst is spent, got %v", err)
	}
}

func TestLogin_OverlongPasswordNeverMatches(t *testing.T) {
	long := strings.Repeat("x", 80)
	a := New(long)

	if _, err := a.Login(long); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestLogin_CreatesSession(t *testing.T) {
	a := New("password")

	token, _ := a.Login("password")

	if !a.ValidateSession(token) {
		t.Error("expected session to be valid after login")
	}
}

func TestLogin_PurgesExpiredSessions(t *testing.T) {
	a := New("password")
	start := time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)
	clock := start
	a.now = func() time.Time { return clock }

	old, _ := a.Login("password")
	clock = start.Add(SessionExpiry + time.Minute)
	fresh, _ := a.Login("password")

	a.mu.RLock()
	_, oldExists := a.sessions[old]
	_, freshExists := a.sessions[fresh]
	a.mu.RUnlock()
	if oldExists {
		t.Error("expected expired session to be purged on login")
	}
	if !freshExists {
		t.Error("expected new session to be stored")
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	a.Logout(token)

	if a.ValidateSession(token) {
		t.Error("expected session to be invalid after logout")
	}
}

func TestValidateSession_InvalidToken(t *testing.T) {
	a := New("password")

	if a.ValidateSession("nonexistent-token") {
		t.Error("expected false for nonexistent token")
	}
}

func TestValidateSession_ExpiredSession(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	a.mu.Lock()
	a.sessions[token] = time.Now().Add(-1 * time.Hour)
	a.mu.Unlock()

	if a.ValidateSession(token) {
		t.Error("expected expired session to be invalid")
	}

	a.mu.RLock()
	_, exists := a.sessions[token]
	a.mu.RUnlock()
	if exists {
		t.Error("expected expired session to be removed")
	}
}

func TestGetSessionFromRequest(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   bool
	}{
		{"valid cookie", &http.Cookie{Name: CookieName, Value: token}, true},
		{"no cookie", nil, false},
		{"invalid cookie", &http.Cookie{Name: CookieName, Value: "invalid-token"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/drivers", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if got := a.GetSessionFromRequest(req); got != tt.want {
				t.Errorf("GetSessionFromRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireAuthAPI_AllowsValidSession(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/settings", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAuthAPI_Returns401WithoutSession(t *testing.T) {
	a := New("password")

	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/settings", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Error("expected JSON content type")
	}
	if !strings.Contains(rr.Body.String(), "UNAUTHORIZED") {
		t.Errorf("expected UNAUTHORIZED code in body, got: %s", rr.Body.String())
	}
}

func TestSetSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()

	SetSessionCookie(rr, "test-token")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != CookieName || cookie.Value != "test-token" {
		t.Errorf("unexpected cookie %s=%s", cookie.Name, cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly to be true")
	}
	if cookie.Path != "/" {
		t.Errorf("expected path '/', got %s", cookie.Path)
	}
}

func TestClearSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()

	ClearSessionCookie(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("expected MaxAge -1 (delete), got %d", cookies[0].MaxAge)
	}
}

func TestConcurrentSessionAccess(t *testing.T) {
	a := New("password")

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			token, _ := a.Login("password")
			a.ValidateSession(token)
			a.Logout(token)
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
