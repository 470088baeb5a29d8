package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperAuth "competency_backend/internals/helpers/auth"
)

const testSecret = "test-secret"

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newApp(extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{AuthJWT(AuthJWTOpts{
		Secret:              testSecret,
		AllowCookieFallback: true,
		Now:                 func() time.Time { return testNow },
	})}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		sid, _ := c.Locals(helperAuth.LocStudentID).(string)
		return c.SendString(sid)
	})
	app.Get("/x", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthJWT(t *testing.T) {
	sid := uuid.New().String()
	valid := jwt.MapClaims{
		"sub":        uuid.New().String(),
		"student_id": sid,
		"role":       "student",
		"exp":        testNow.Add(time.Hour).Unix(),
	}

	t.Run("valid token hydrates locals", func(t *testing.T) {
		code, body := doGet(t, newApp(), sign(t, jwt.SigningMethodHS256, []byte(testSecret), valid))
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, sid, body)
	})

	t.Run("missing token", func(t *testing.T) {
		code, _ := doGet(t, newApp(), "")
		assert.Equal(t, fiber.StatusUnauthorized, code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		code, _ := doGet(t, newApp(), sign(t, jwt.SigningMethodHS256, []byte("other"), valid))
		assert.Equal(t, fiber.StatusUnauthorized, code)
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": uuid.New().String(), "exp": testNow.Add(-time.Minute).Unix()}
		code, _ := doGet(t, newApp(), sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		assert.Equal(t, fiber.StatusUnauthorized, code)
	})

	t.Run("no exp", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": uuid.New().String()}
		code, _ := doGet(t, newApp(), sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		assert.Equal(t, fiber.StatusUnauthorized, code)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("Cookie", "access_token="+sign(t, jwt.SigningMethodHS256, []byte(testSecret), valid))
		resp, err := newApp().Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestOnlyRoles(t *testing.T) {
	admin := jwt.MapClaims{"sub": uuid.New().String(), "roles": []string{"teacher", "admin"}, "exp": testNow.Add(time.Hour).Unix()}
	student := jwt.MapClaims{"sub": uuid.New().String(), "role": "student", "exp": testNow.Add(time.Hour).Unix()}
	noRole := jwt.MapClaims{"sub": uuid.New().String(), "exp": testNow.Add(time.Hour).Unix()}

	app := newApp(OnlyRoles("", helperAuth.RoleAdmin))

	code, _ := doGet(t, app, sign(t, jwt.SigningMethodHS256, []byte(testSecret), admin))
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = doGet(t, app, sign(t, jwt.SigningMethodHS256, []byte(testSecret), student))
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = doGet(t, app, sign(t, jwt.SigningMethodHS256, []byte(testSecret), noRole))
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestRequireStudent(t *testing.T) {
	app := newApp(RequireStudent())
	noStudent := jwt.MapClaims{"sub": uuid.New().String(), "role": "admin", "exp": testNow.Add(time.Hour).Unix()}
	code, _ := doGet(t, app, sign(t, jwt.SigningMethodHS256, []byte(testSecret), noStudent))
	assert.Equal(t, fiber.StatusForbidden, code)
}
