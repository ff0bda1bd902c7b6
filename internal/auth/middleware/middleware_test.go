package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quizcontent/internal/rbac"
)

func login(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginAndMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc := NewAuthService("test-secret", time.Hour)
	h := LoginHandler(svc, Credentials{AdminUser: "admin", AdminPassHash: string(hash), DevLogins: true})

	if rec := login(t, h, `{"username":"admin","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad admin password: %d", rec.Code)
	}
	if rec := login(t, h, `{"username":"bob","password":"bob","role":"admin"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("dev login escalated to admin: %d", rec.Code)
	}
	if rec := login(t, h, `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}

	rec := login(t, h, `{"username":"admin","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: %d %s", rec.Code, rec.Body)
	}
	var out struct {
		Token string `json:"access_token"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out.Role != "admin" {
		t.Fatalf("login body: %+v, %v", out, err)
	}

	var gotSub, gotRole string
	protected := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotSub != "admin" || gotRole != "admin" {
		t.Fatalf("status %d sub %q role %q", rec.Code, gotSub, gotRole)
	}

	other, _ := NewAuthService("other-secret", time.Hour).IssueJWT("x", "admin")
	for _, hdr := range []string{"", "Bearer garbage", "Bearer " + other} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status %d", hdr, rec.Code)
		}
	}
}

func TestDevLoginsDisabled(t *testing.T) {
	h := LoginHandler(NewAuthService("k", 0), Credentials{AdminUser: "admin"})
	if rec := login(t, h, `{"username":"teacher","password":"teacher","role":"teacher"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("dev login with DevLogins off: %d", rec.Code)
	}
}
