package services

import (
	"context"
	"cyberdravida/database"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const certificateNumberAttempts = 5

type CertificateService struct {
	base
}

func NewCertificateService(db *gorm.DB, opts Options) *CertificateService {
	return &CertificateService{base: newBase(db, opts)}
}

// CertificateView is a certificate joined with its course and holder
type CertificateView struct {
	courseModels.Certificate
	CourseTitle string `json:"course_title"`
	CourseSlug  string `json:"course_slug"`
	StudentName string `json:"student_name"`
}

// PublicCertificate is the projection anyone holding the number may see
type PublicCertificate struct {
	Valid             bool      `json:"valid"`
	CertificateNumber string    `json:"certificate_number"`
	IssuedAt          time.Time `json:"issued_at"`
	CourseTitle       string    `json:"course_title"`
	StudentName       string    `json:"student_name"`
}

func (v CertificateView) Public() PublicCertificate {
	return PublicCertificate{
		Valid:             true,
		CertificateNumber: v.CertificateNumber,
		IssuedAt:          v.IssuedAt,
		CourseTitle:       v.CourseTitle,
		StudentName:       v.StudentName,
	}
}

// IssueIfAbsent returns the user's certificate for the course, creating it
// on first call. Must run inside the caller's transaction.
func (s *CertificateService) IssueIfAbsent(tx *gorm.DB, userID, courseID uint) (*courseModels.Certificate, error) {
	var existing courseModels.Certificate
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !database.IsNotFound(err) {
		return nil, errors.Wrap(err, "load certificate")
	}

	for attempt := 0; attempt < certificateNumberAttempts; attempt++ {
		at := s.now()
		cert := courseModels.Certificate{
			UserID:            userID,
			CourseID:          courseID,
			CertificateNumber: utils.GenerateCertificateNumber(at),
			IssuedAt:          at,
		}
		// A savepoint keeps a failed insert from aborting the outer transaction on Postgres
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&cert).Error
		})
		if err == nil {
			return &cert, nil
		}
		if !database.IsDuplicate(err) {
			return nil, errors.Wrap(err, "create certificate")
		}

		// Either the number collided or a concurrent issue won the pair
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error; err == nil {
			return &existing, nil
		}
	}
	return nil, errors.New("could not allocate a unique certificate number")
}

func (s *CertificateService) views(db *gorm.DB) *gorm.DB {
	return db.Table("certificates").
		Select("certificates.*, courses.title AS course_title, courses.slug AS course_slug, users.name AS student_name").
		Joins("JOIN courses ON courses.id = certificates.course_id").
		Joins("JOIN users ON users.id = certificates.user_id")
}

func (s *CertificateService) ListForUser(ctx context.Context, userID uint) ([]CertificateView, error) {
	var certs []CertificateView
	if err := s.views(s.db.WithContext(ctx)).
		Where("certificates.user_id = ?", userID).
		Order("certificates.issued_at DESC").
		Scan(&certs).Error; err != nil {
		return nil, errors.Wrap(err, "list certificates")
	}
	return certs, nil
}

// Get looks a certificate up by numeric id or certificate number. The owner
// receives the full record, everyone else the public projection.
func (s *CertificateService) Get(ctx context.Context, idOrNumber string, viewerID uint) (interface{}, error) {
	q := s.views(s.db.WithContext(ctx))
	if id, err := strconv.ParseUint(idOrNumber, 10, 64); err == nil {
		q = q.Where("certificates.id = ?", id)
	} else {
		q = q.Where("certificates.certificate_number = ?", idOrNumber)
	}

	var views []CertificateView
	if err := q.Limit(1).Scan(&views).Error; err != nil {
		return nil, errors.Wrap(err, "load certificate")
	}
	if len(views) == 0 {
		return nil, ErrCertificateAbsent
	}
	if views[0].UserID == viewerID {
		return views[0], nil
	}
	return views[0].Public(), nil
}

// Verify is the public lookup by certificate number
func (s *CertificateService) Verify(ctx context.Context, number string) (*PublicCertificate, error) {
	var views []CertificateView
	if err := s.views(s.db.WithContext(ctx)).
		Where("certificates.certificate_number = ?", number).
		Limit(1).
		Scan(&views).Error; err != nil {
		return nil, errors.Wrap(err, "verify certificate")
	}
	if len(views) == 0 {
		return nil, ErrCertificateAbsent.WithDetails(PublicCertificate{Valid: false})
	}
	pub := views[0].Public()
	return &pub, nil
}
