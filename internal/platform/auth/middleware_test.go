package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, secret []byte, subject, role, issuer string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request) (Identity, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Identity
	handler := mw(func(c echo.Context) error {
		got = IdentityFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	return got, handler(c)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()
	tok := signToken(t, secret, userID.String(), RoleDoctor, "consult-server")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	got, err := runMiddleware(JWTMiddleware(JWTConfig{Secret: secret, Issuer: "consult-server"}), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != userID {
		t.Errorf("expected user id %s, got %s", userID, got.UserID)
	}
	if got.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", got.Role)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := runMiddleware(JWTMiddleware(JWTConfig{Secret: []byte("s")}), req)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	tok := signToken(t, []byte("other-secret"), uuid.New().String(), RolePatient, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	_, err := runMiddleware(JWTMiddleware(JWTConfig{Secret: []byte("test-secret")}), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_UnknownRole(t *testing.T) {
	secret := []byte("test-secret")
	tok := signToken(t, secret, uuid.New().String(), "superuser", "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	_, err := runMiddleware(JWTMiddleware(JWTConfig{Secret: secret}), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown role, got %v", err)
	}
}

func TestJWTMiddleware_SkipperBypassesAuth(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{
		Secret: []byte("test-secret"),
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
	})

	// Health probes carry no token and must still get through.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if _, err := runMiddleware(mw, req); err != nil {
		t.Errorf("skipped route must not require a token: %v", err)
	}

	// Everything else still requires one.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/applications", nil)
	_, err := runMiddleware(mw, req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-skipped route, got %v", err)
	}
}

func TestDevAuthMiddleware_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := runMiddleware(DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("expected admin role, got %s", got.Role)
	}
}

func TestDevAuthMiddleware_Overrides(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-Role", RolePatient)
	req.Header.Set("X-Dev-User-ID", userID.String())

	got, err := runMiddleware(DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != RolePatient {
		t.Errorf("expected patient role, got %s", got.Role)
	}
	if got.UserID != userID {
		t.Errorf("expected user id %s, got %s", userID, got.UserID)
	}
}

func TestRequireRole(t *testing.T) {
	doctorReq := func() *http.Request {
		return httptest.NewRequest(http.MethodGet, "/", nil)
	}

	e := echo.New()
	call := func(role string, required ...string) error {
		rec := httptest.NewRecorder()
		req := doctorReq()
		c := e.NewContext(req, rec)
		ctx := WithIdentity(req.Context(), Identity{UserID: uuid.New(), Role: role})
		c.SetRequest(req.WithContext(ctx))

		handler := RequireRole(required...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		return handler(c)
	}

	if err := call(RoleDoctor, RoleDoctor); err != nil {
		t.Errorf("doctor should pass doctor gate: %v", err)
	}
	if err := call(RoleAdmin, RoleDoctor); err != nil {
		t.Errorf("admin should pass any gate: %v", err)
	}
	err := call(RolePatient, RoleDoctor)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for patient at doctor gate, got %v", err)
	}
}
