package validators

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type utrRequest struct {
	UTR   string `json:"utr_number" validate:"required,utr"`
	Count int    `json:"count" validate:"min=0"`
}

func TestUTRRule(t *testing.T) {
	valid := []string{"123456789012", "ABCdef123456", strings.Repeat("9", 22)}
	for _, v := range valid {
		assert.Empty(t, Struct(&utrRequest{UTR: v}), v)
	}

	invalid := []string{"12345678901", strings.Repeat("9", 23), "1234-5678-9012", "12345678901 "}
	for _, v := range invalid {
		errs := Struct(&utrRequest{UTR: v})
		require.Contains(t, errs, "utr_number", v)
		assert.Equal(t, "utr_number must be 12 to 22 letters or digits", errs["utr_number"])
	}
}

func TestStructUsesJSONNamesAndRequiredText(t *testing.T) {
	errs := Struct(&utrRequest{Count: -1})
	assert.Equal(t, "this field is required", errs["utr_number"])
	assert.Contains(t, errs, "count")
}

func runApp(t *testing.T, handler fiber.Handler, path, body string) (int, string) {
	t.Helper()
	app := fiber.New()
	app.Post("/:id?", handler, func(c *fiber.Ctx) error {
		if req, ok := c.Locals("req").(*utrRequest); ok {
			return c.SendString("ok:" + req.UTR)
		}
		return c.SendString("ok")
	})

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestBody(t *testing.T) {
	status, _ := runApp(t, Body[utrRequest]("req"), "/", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := runApp(t, Body[utrRequest]("req"), "/", `{"utr_number":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "utr_number")

	status, body = runApp(t, Body[utrRequest]("req"), "/", `{"utr_number":"123456789012"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:123456789012", body)
}

func TestOptionalBody(t *testing.T) {
	status, body := runApp(t, OptionalBody[utrRequest]("req"), "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:", body)

	status, _ = runApp(t, OptionalBody[utrRequest]("req"), "/", `{"utr_number":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestParamIDs(t *testing.T) {
	status, _ := runApp(t, ParamIDs("id"), "/42", "")
	assert.Equal(t, http.StatusOK, status)

	for _, path := range []string{"/0", "/abc", "/-3"} {
		status, _ := runApp(t, ParamIDs("id"), path, "")
		assert.Equal(t, http.StatusBadRequest, status, path)
	}
}

func TestRegistrationFailuresPanic(t *testing.T) {
	assert.Panics(t, func() { mustRegisterValidation("", isUTR) })
	assert.Panics(t, func() { mustRegisterValidation("broken", nil) })
	assert.NotPanics(t, func() { mustRegisterValidation("utr_again", isUTR) })
}
