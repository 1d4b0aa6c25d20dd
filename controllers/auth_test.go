package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"InmoCRM/middleware"
	"InmoCRM/pkg/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newAuthRouter(db *gorm.DB) *gin.Engine {
	config.JWTSecret = "test-secret"
	r := gin.New()
	r.POST("/api/auth/register", Register(db))
	r.POST("/api/auth/login", Login(db))
	protected := r.Group("/", middleware.AuthMiddleware())
	protected.POST("/api/auth/logout", Logout())
	protected.GET("/api/me", func(c *gin.Context) {
		uid, _ := c.Get(middleware.ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})
	return r
}

func doJSONAuth(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	r := newAuthRouter(db)

	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","username":"ana","password":"lettersonly"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("weak password accepted: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","username":"ana","password":"clave123"}`); w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","username":"otra","password":"clave123"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status = %d, want 409", w.Code)
	}
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	db := newTestDB(t)
	r := newAuthRouter(db)

	doJSON(t, r, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","username":"ana","password":"clave123"}`)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"A@B.com","password":"clave123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.AccessToken == "" {
		t.Fatalf("no access token in %s", w.Body.String())
	}

	authed := func(method, path string) int {
		t.Helper()
		wr := doJSONAuth(t, r, method, path, "", body.AccessToken)
		return wr.Code
	}
	if code := authed(http.MethodGet, "/api/me"); code != http.StatusOK {
		t.Fatalf("token rejected before logout: %d", code)
	}
	if code := authed(http.MethodPost, "/api/auth/logout"); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	// the jti is revoked, the same token must stop working
	if code := authed(http.MethodGet, "/api/me"); code != http.StatusUnauthorized {
		t.Fatalf("revoked token still accepted: %d", code)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"wrong999"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d, want 401", w.Code)
	}
}
