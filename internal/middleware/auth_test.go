package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	applog "actc_portal_go/pkg/log"
	"actc_portal_go/pkg/token"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	applog.Init("error", "console", "")
	os.Exit(m.Run())
}

func authRouter(jwtManager *token.JWTManager) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(jwtManager), func(c *gin.Context) {
		claimsVal, _ := c.Get("claims")
		claims := claimsVal.(*token.CustomClaims)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "role": claims.Role})
	})
	return r
}

func doAuth(t *testing.T, r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	msg, _ := body["message"].(string)
	return msg
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	r := authRouter(token.NewJWTManager("secret", time.Minute))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer  "} {
		w := doAuth(t, r, header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
		if got := message(t, w); got != "No token provided." {
			t.Errorf("header %q: unexpected message %q", header, got)
		}
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	// 负的有效期签出一个立即过期的令牌
	expired := token.NewJWTManager("secret", -time.Minute)
	accessToken, err := expired.GenerateToken(1, "alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := authRouter(token.NewJWTManager("secret", time.Minute))
	w := doAuth(t, r, "Bearer "+accessToken)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := message(t, w); got != "Token expired. Please login again." {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	other := token.NewJWTManager("other-secret", time.Minute)
	accessToken, err := other.GenerateToken(1, "alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := authRouter(token.NewJWTManager("secret", time.Minute))
	w := doAuth(t, r, "Bearer "+accessToken)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := message(t, w); got != "Invalid token." {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestAuthMiddleware_ValidTokenInjectsClaims(t *testing.T) {
	jwtManager := token.NewJWTManager("secret", time.Minute)
	accessToken, err := jwtManager.GenerateToken(7, "alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := authRouter(jwtManager)
	w := doAuth(t, r, "Bearer "+accessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["userId"] != float64(7) || body["role"] != "admin" {
		t.Fatalf("unexpected claims: %v", body)
	}
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	jwtManager := token.NewJWTManager("secret", time.Minute)
	accessToken, err := jwtManager.GenerateToken(1, "alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := authRouter(jwtManager)
	w := doAuth(t, r, "bearer "+accessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for lowercase scheme, got %d", w.Code)
	}
}
