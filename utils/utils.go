package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a URL-safe identifier
func Slugify(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

const certificateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCertificateNumber returns CD-<unix millis>-<6 random characters>
func GenerateCertificateNumber(at time.Time) string {
	id := uuid.New() // crypto/rand backed
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = certificateAlphabet[int(id[i])%len(certificateAlphabet)]
	}
	return fmt.Sprintf("CD-%d-%s", at.UnixMilli(), suffix)
}

// ParsePage normalizes page/limit query values
func ParsePage(page, limit, defaultLimit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, (page - 1) * limit
}

// TotalPages computes the page count for a total at the given limit
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
