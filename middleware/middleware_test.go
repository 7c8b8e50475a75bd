package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cyberdravida/models"
	"cyberdravida/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func call(t *testing.T, app *fiber.App, token string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func whoAmI(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user_id": UserID(c), "role": c.Locals("role")})
}

func TestJWTMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", JWTMiddleware(secret), whoAmI)

	token, err := GenerateJWT(secret, time.Hour, &models.User{ID: 7, Role: models.RoleStudent})
	require.NoError(t, err)

	status, body := call(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, models.RoleStudent, body["role"])

	expired, err := GenerateJWT(secret, -time.Minute, &models.User{ID: 7})
	require.NoError(t, err)
	wrongKey, err := GenerateJWT("other", time.Hour, &models.User{ID: 7})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": token,
		"expired":   "Bearer " + expired,
		"wrong key": "Bearer " + wrongKey,
	} {
		status, body := call(t, app, header)
		assert.Equal(t, http.StatusUnauthorized, status, name)
		assert.Equal(t, "UNAUTHORIZED", body["code"], name)
	}
}

func TestOptionalJWT(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalJWT(secret), whoAmI)

	status, body := call(t, app, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["user_id"])

	status, body = call(t, app, "Bearer broken")
	assert.Equal(t, http.StatusOK, status, "bad tokens degrade to anonymous")
	assert.Equal(t, float64(0), body["user_id"])

	token, err := GenerateJWT(secret, time.Hour, &models.User{ID: 3})
	require.NoError(t, err)
	_, body = call(t, app, "Bearer "+token)
	assert.Equal(t, float64(3), body["user_id"])
}

func TestErrorResponseMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrDuplicateUTR, http.StatusBadRequest},
		{services.ErrAlreadyEnrolled, http.StatusConflict},
		{services.ErrPaymentNotFound, http.StatusNotFound},
		{services.ErrInvalidState, http.StatusBadRequest},
		{services.ErrPaymentRequired, http.StatusPaymentRequired},
		{services.ErrNotEnrolled, http.StatusForbidden},
		{services.ErrBadCredentials, http.StatusUnauthorized},
		{services.ErrCouponUnavailable, http.StatusBadRequest},
	}
	for _, tt := range tests {
		app := fiber.New()
		err := tt.err
		app.Get("/", func(c *fiber.Ctx) error { return ErrorResponse(c, err) })

		status, body := call(t, app, "")
		assert.Equal(t, tt.status, status, err.Error())
		assert.Equal(t, false, body["status"])
		assert.Equal(t, err.Error(), body["message"])
	}
}

func TestErrorResponseCarriesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ErrorResponse(c, services.ErrAlreadyEnrolled.WithDetails(map[string]interface{}{"enrolled_courses": []uint{4}}))
	})
	status, body := call(t, app, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, map[string]interface{}{"enrolled_courses": []interface{}{float64(4)}}, body["data"])
}

func TestErrorHandlerMasksInternalErrors(t *testing.T) {
	failing := func(c *fiber.Ctx) error { return errors.New("pq: connection refused") }

	prod := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(true)})
	prod.Get("/", failing)
	status, body := call(t, prod, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["message"])

	dev := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(false)})
	dev.Get("/", failing)
	_, body = call(t, dev, "")
	assert.Equal(t, "pq: connection refused", body["message"])

	notFound := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(true)})
	status, body = call(t, notFound, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
