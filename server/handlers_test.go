package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aidetectsai/detector-api/auth"
	"github.com/aidetectsai/detector-api/auth/provision"
	"github.com/aidetectsai/detector-api/database"
	"github.com/aidetectsai/detector-api/detector"
	"github.com/aidetectsai/detector-api/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUserStore struct {
	users map[string]*database.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*database.User{}}
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*database.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (m *memUserStore) FindByLoginAndProvider(_ context.Context, login, provider string) (*database.User, error) {
	for _, u := range m.users {
		if u.Login == login && u.Provider == provider {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memUserStore) Create(_ context.Context, user *database.User) error {
	for _, u := range m.users {
		if u.Email == user.Email || (u.Login == user.Login && u.Provider == user.Provider) {
			return database.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.Email] = user
	return nil
}

func (m *memUserStore) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, u := range m.users {
		if u.ID == id {
			u.LastLoginAt = &at
			return nil
		}
	}
	return database.ErrNotFound
}

type memRoleStore struct {
	roles map[string]*database.Role
}

func (m *memRoleStore) FindByName(_ context.Context, name string) (*database.Role, error) {
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	return nil, database.ErrNotFound
}

type stubEmails struct{}

func (stubEmails) ListEmails(context.Context, string) ([]provision.Email, error) {
	return nil, nil
}

// testAPI wires a complete engine against in-memory stores and an httptest
// detection upstream.
type testAPI struct {
	srv    *Server
	users  *memUserStore
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T, upstreamURL string) *testAPI {
	t.Helper()

	users := newMemUserStore()
	roles := &memRoleStore{roles: map[string]*database.Role{
		auth.DefaultRole: {ID: uuid.New(), Name: auth.DefaultRole},
		auth.AdminRole:   {ID: uuid.New(), Name: auth.AdminRole},
	}}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: "0123456789abcdef0123456789abcdef", TTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	hasher := auth.NewHasher(auth.WithTime(1), auth.WithMemory(16))
	authSvc := auth.NewService(users, roles, hasher, tokens)
	provisioner := provision.NewService(users, roles, stubEmails{})

	detectSvc, err := detector.NewService(detector.Config{URL: upstreamURL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("detector.NewService: %v", err)
	}

	srv := New(Config{Port: 0}, logger.GetGlobalLogger())
	srv.RegisterRoutes(Handlers{
		Auth:   NewAuthHandler(authSvc, provisioner, tokens),
		Detect: NewDetectHandler(detectSvc),
		Tokens: tokens,
	})

	return &testAPI{srv: srv, users: users, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.srv.GinEngine().ServeHTTP(w, req)
	return w
}

func (a *testAPI) register(t *testing.T, login, password, email string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"login": login, "password": password, "email": email,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", login, w.Code, w.Body.String())
	}
}

func (a *testAPI) login(t *testing.T, login, password string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"login": login, "password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", login, w.Code, w.Body.String())
	}
	var body loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return body.Token
}

func TestRegisterEndpoint(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:1")

	t.Run("valid registration", func(t *testing.T) {
		api.register(t, "alice", "secret-password", "alice@example.com")
		if api.users.users["alice@example.com"] == nil {
			t.Error("user not persisted")
		}
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"login": "alice", "password": "secret-password", "email": "alice@example.com",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", w.Code)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		tests := []map[string]string{
			{"login": "al", "password": "secret-password", "email": "x@example.com"},
			{"login": "bob", "password": "short", "email": "x@example.com"},
			{"login": "bob", "password": "secret-password", "email": "not-an-email"},
			{"login": "bob", "password": "secret-password"},
			{"login": "bad login!", "password": "secret-password", "email": "x@example.com"},
		}
		for i, payload := range tests {
			w := api.do(t, http.MethodPost, "/auth/register", "", payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("case %d: expected 400, got %d", i, w.Code)
			}
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:1")
	api.register(t, "alice", "secret-password", "alice@example.com")

	t.Run("valid credentials return a token", func(t *testing.T) {
		token := api.login(t, "alice", "secret-password")
		if !api.tokens.Valid(token) {
			t.Error("issued token must validate")
		}
		if api.users.users["alice@example.com"].LastLoginAt == nil {
			t.Error("last login must be recorded")
		}
	})

	t.Run("wrong password is a 401 with the login failure body", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"login": "alice", "password": "wrong-password",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != "Unauthorized" || body["message"] != "User does not exist or invalid password" {
			t.Errorf("unexpected body: %v", body)
		}
	})

	t.Run("unknown user gets the same 401", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"login": "nobody", "password": "secret-password",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestOAuthCallbackEndpoint(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:1")

	w := api.do(t, http.MethodPost, "/auth/oauth/github", "", map[string]any{
		"subject": "12345",
		"attributes": map[string]any{
			"login": "octocat", "email": "octo@example.com",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if api.users.users["octo@example.com"] == nil {
		t.Error("external identity not provisioned")
	}
}

func TestUseModelEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction":"Human created","confidence":0.71}`))
	}))
	defer upstream.Close()

	api := newTestAPI(t, upstream.URL)
	api.register(t, "alice", "secret-password", "alice@example.com")
	token := api.login(t, "alice", "secret-password")

	t.Run("without a token the route is gated", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/useModel", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("authenticated upload is relayed", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {`form-data; name="image"; filename="sample.png"`},
			"Content-Type":        {"image/png"},
		})
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write([]byte("fake png bytes"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/useModel", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		api.srv.GinEngine().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var result detector.Result
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if result.Result != "Human created" || result.Confidence != 0.71 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("missing file is a 400", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/useModel", token, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestRekeyEndpoint(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:1")
	api.register(t, "alice", "secret-password", "alice@example.com")
	api.register(t, "root", "secret-password", "root@example.com")
	api.users.users["root@example.com"].Roles = append(
		api.users.users["root@example.com"].Roles,
		database.Role{ID: uuid.New(), Name: auth.AdminRole},
	)

	userToken := api.login(t, "alice", "secret-password")
	adminToken := api.login(t, "root", "secret-password")
	newSecret := fmt.Sprintf("%032d", 42)

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/admin/rekey", "", map[string]string{"secret": newSecret})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("non-admin caller is forbidden", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/admin/rekey", userToken, map[string]string{"secret": newSecret})
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("short secret is rejected", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/admin/rekey", adminToken, map[string]string{"secret": "short"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("admin rotates the secret", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/admin/rekey", adminToken, map[string]string{"secret": newSecret})
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
		}
		if api.tokens.Valid(userToken) || api.tokens.Valid(adminToken) {
			t.Error("outstanding tokens must be invalidated by the rotation")
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("upstream reachable", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer upstream.Close()

		api := newTestAPI(t, upstream.URL)
		w := api.do(t, http.MethodGet, "/health", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["status"] != "ok" || body["upstream"] != "ok" {
			t.Errorf("unexpected health body: %v", body)
		}
	})

	t.Run("upstream unreachable", func(t *testing.T) {
		api := newTestAPI(t, "http://127.0.0.1:1")
		w := api.do(t, http.MethodGet, "/health", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["status"] != "ok" || body["upstream"] != "unreachable" {
			t.Errorf("unexpected health body: %v", body)
		}
	})
}
