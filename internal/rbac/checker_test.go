package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(map[string][]string{
		"teacher": {"lesson:*"},
		"student": {"lesson:view"},
		"admin":   {"*"},
	})
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"teacher", "lesson:edit", true},
		{"teacher", "progress:view-all", false},
		{"student", "lesson:view", true},
		{"student", "lesson:edit", false},
		{"admin", "anything", true},
		{"", "lesson:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if !c.Any("student", "lesson:edit", "lesson:view") {
		t.Errorf("Any should match lesson:view")
	}
}

func TestRequireMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	cases := []struct {
		role string
		want int
	}{
		{"teacher", http.StatusNoContent},
		{"student", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), tc.role))
		rec := httptest.NewRecorder()
		Require("lesson:edit")(ok).ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("role %q: status %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
}

func TestRequireOwnerOr(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireOwnerOr("progress:view-all", func(r *http.Request) bool { return r.URL.Query().Get("me") == "1" })(ok)

	for _, tc := range []struct {
		url, role string
		want      int
	}{
		{"/?me=1", "student", http.StatusNoContent},
		{"/", "student", http.StatusForbidden},
		{"/", "teacher", http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.url, nil)
		req = req.WithContext(WithRole(req.Context(), tc.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s as %s: status %d, want %d", tc.url, tc.role, rec.Code, tc.want)
		}
	}
}
