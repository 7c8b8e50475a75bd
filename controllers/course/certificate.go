package courseController

import (
	"cyberdravida/middleware"
	"cyberdravida/services"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetUserCertificates(c *fiber.Ctx) error {
	certs, err := h.certificates.ListForUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

func (h *Handler) GetCertificate(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Params("id"))

	cert, err := h.certificates.Get(c.UserContext(), ref, middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", cert)
}

// VerifyCertificate is public. An unknown number is reported as invalid,
// not as a server failure.
func (h *Handler) VerifyCertificate(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("number"))
	if number == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate number is required!", nil)
	}

	cert, err := h.certificates.Verify(c.UserContext(), number)
	if errors.Is(err, services.ErrCertificateAbsent) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", fiber.Map{"valid": false})
	}
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid!", cert)
}
