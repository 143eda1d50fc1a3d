package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/aidetectsai/detector-api/auth/authctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubValidator accepts exactly one token and maps it to one login.
type stubValidator struct {
	token string
	login string
	panic bool
}

func (s *stubValidator) Valid(token string) bool {
	if s.panic {
		panic("validator blew up")
	}
	return token == s.token
}

func (s *stubValidator) ParseSubject(token string) (string, error) {
	if token == s.token {
		return s.login, nil
	}
	return "", http.ErrNoCookie
}

// echoRouter reports whether the request arrived authenticated and under
// which login.
func echoRouter(tokens TokenValidator) *gin.Engine {
	r := gin.New()
	r.Use(Authentication(tokens))
	r.GET("/echo", func(c *gin.Context) {
		login, ok := authctx.Login(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "login": login})
	})
	r.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticationPassThrough(t *testing.T) {
	v := &stubValidator{token: "good-token", login: "alice"}
	r := echoRouter(v)

	tests := []struct {
		name          string
		header        string
		authenticated bool
		login         string
	}{
		{"no header", "", false, ""},
		{"valid bearer token", "Bearer good-token", true, "alice"},
		{"invalid token", "Bearer bad-token", false, ""},
		{"non-bearer scheme", "Basic Zm9vOmJhcg==", false, ""},
		{"bare token without scheme", "good-token", false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, tc.header, "/echo")
			if w.Code != http.StatusOK {
				t.Fatalf("filter must forward the request, got status %d", w.Code)
			}

			var body struct {
				Authenticated bool   `json:"authenticated"`
				Login         string `json:"login"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Authenticated != tc.authenticated || body.Login != tc.login {
				t.Errorf("got authenticated=%v login=%q, want %v %q",
					body.Authenticated, body.Login, tc.authenticated, tc.login)
			}
		})
	}
}

func TestAuthenticationPanicBecomes401(t *testing.T) {
	v := &stubValidator{token: "good-token", login: "alice", panic: true}
	r := echoRouter(v)

	w := doRequest(r, "Bearer good-token", "/echo")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Unauthorized" || body["message"] != "Authentication failed" || body["status"] != float64(401) {
		t.Errorf("unexpected 401 body: %v", body)
	}
}

func TestAuthenticationDoesNotSwallowHandlerPanics(t *testing.T) {
	v := &stubValidator{token: "good-token", login: "alice"}
	r := gin.New()
	r.Use(Recovery(), Authentication(v))
	r.GET("/boom", func(c *gin.Context) {
		panic("handler blew up")
	})

	w := doRequest(r, "Bearer good-token", "/boom")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("handler panic must reach the recovery middleware, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Internal Server Error" || body["status"] != float64(500) {
		t.Errorf("unexpected 500 body: %v", body)
	}
}

func TestRequireAuth(t *testing.T) {
	v := &stubValidator{token: "good-token", login: "alice"}
	r := echoRouter(v)

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		w := doRequest(r, "", "/protected")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != "Unauthorized" || body["message"] != "Authentication required" || body["status"] != float64(401) {
			t.Errorf("unexpected 401 body: %v", body)
		}
	})

	t.Run("authenticated request passes", func(t *testing.T) {
		w := doRequest(r, "Bearer good-token", "/protected")
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer ", ""},
		{"", ""},
		{"bearer abc", ""},
		{"Basic abc", ""},
		{"abc", ""},
	}
	for _, tc := range tests {
		if got := ParseBearer(tc.header); got != tc.want {
			t.Errorf("ParseBearer(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
