package database

import (
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureAdmin creates the bootstrap admin if no user holds the email.
// An existing non-admin account with that email is promoted.
func EnsureAdmin(db *gorm.DB, email, password string, saltRound int) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != models.RoleAdmin {
			if err := db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
				return nil, fmt.Errorf("promote admin: %w", err)
			}
			user.Role = models.RoleAdmin
			log.Printf("[SEED] Promoted %s to admin", email)
		}
		return &user, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), saltRound)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	hashStr := string(hash)
	user = models.User{
		Email:        email,
		PasswordHash: &hashStr,
		Name:         "Admin",
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	log.Printf("[SEED] Admin user created: %s", email)
	return &user, nil
}

type seedCourse struct {
	Title         string
	Short         string
	Price         int64
	OriginalPrice int64
	Level         string
	Duration      int
	Category      string
	Featured      bool
	Modules       []seedModule
}

type seedModule struct {
	Title   string
	Lessons []string
}

var sampleCatalog = []seedCourse{
	{
		Title: "OSINT Fundamentals", Short: "Introduction to Open Source Intelligence gathering",
		Price: 2499, OriginalPrice: 3999, Level: courseModels.LevelBeginner, Duration: 480, Category: "OSINT",
		Modules: []seedModule{
			{Title: "Getting Started", Lessons: []string{"What is OSINT", "Legal and Ethical Boundaries"}},
			{Title: "Search Techniques", Lessons: []string{"Advanced Search Operators", "Public Records"}},
		},
	},
	{
		Title: "Introduction to Ethical Hacking", Short: "Your first steps into offensive security",
		Price: 2999, OriginalPrice: 4999, Level: courseModels.LevelBeginner, Duration: 600, Category: "Ethical Hacking", Featured: true,
		Modules: []seedModule{
			{Title: "Foundations", Lessons: []string{"The Hacker Mindset", "Lab Setup"}},
			{Title: "Reconnaissance", Lessons: []string{"Footprinting", "Scanning Networks"}},
		},
	},
	{
		Title: "Network Security Fundamentals", Short: "Protect networks from common attacks",
		Price: 3999, OriginalPrice: 5999, Level: courseModels.LevelIntermediate, Duration: 540, Category: "Network Security", Featured: true,
		Modules: []seedModule{
			{Title: "Protocols", Lessons: []string{"TCP/IP Refresher", "Common Protocol Weaknesses"}},
			{Title: "Defense", Lessons: []string{"Firewalls", "Intrusion Detection"}},
		},
	},
	{
		Title: "Cyber Hygiene Basics", Short: "Free primer on staying safe online",
		Price: 0, OriginalPrice: 0, Level: courseModels.LevelBeginner, Duration: 60, Category: "Awareness",
		Modules: []seedModule{
			{Title: "Everyday Security", Lessons: []string{"Passwords and MFA", "Spotting Phishing"}},
		},
	},
}

// SeedCatalog inserts the sample instructor, courses and coupon when absent.
func SeedCatalog(db *gorm.DB, saltRound int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		instructor := models.User{Email: "instructor@cyberdravida.com"}
		hash, err := bcrypt.GenerateFromPassword([]byte("Instructor@123"), saltRound)
		if err != nil {
			return err
		}
		hashStr := string(hash)
		if err := tx.Where(models.User{Email: instructor.Email}).
			Attrs(models.User{Name: "Sunil Kumar", Role: models.RoleInstructor, PasswordHash: &hashStr}).
			FirstOrCreate(&instructor).Error; err != nil {
			return fmt.Errorf("seed instructor: %w", err)
		}

		for _, sc := range sampleCatalog {
			slug := utils.Slugify(sc.Title)
			var count int64
			if err := tx.Model(&courseModels.Course{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			c := courseModels.Course{
				Title:            sc.Title,
				Slug:             slug,
				Description:      sc.Short + ".",
				ShortDescription: sc.Short,
				Price:            decimal.NewFromInt(sc.Price),
				OriginalPrice:    decimal.NewFromInt(sc.OriginalPrice),
				Level:            sc.Level,
				Duration:         sc.Duration,
				Category:         sc.Category,
				InstructorID:     &instructor.ID,
				IsPublished:      true,
				IsFeatured:       sc.Featured,
				Requirements:     datatypes.JSON(`["A computer with internet access"]`),
				Outcomes:         datatypes.JSON(`[]`),
			}
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("seed course %s: %w", sc.Title, err)
			}

			for i, sm := range sc.Modules {
				m := courseModels.Module{CourseID: c.ID, Title: sm.Title, OrderNum: i + 1}
				if err := tx.Create(&m).Error; err != nil {
					return err
				}
				for j, title := range sm.Lessons {
					l := courseModels.Lesson{
						ModuleID:  m.ID,
						Title:     title,
						Content:   "Content for " + title,
						Duration:  15 + (i+j)*5,
						OrderNum:  j + 1,
						IsPreview: i == 0 && j == 0,
					}
					if err := tx.Create(&l).Error; err != nil {
						return err
					}
				}
			}
			log.Printf("[SEED] Created course: %s", c.Title)
		}

		expiry := time.Now().UTC().AddDate(0, 3, 0)
		limit := 100
		coupon := models.Coupon{Code: "CYBER50"}
		if err := tx.Where(models.Coupon{Code: coupon.Code}).
			Attrs(models.Coupon{DiscountPercent: 50, ExpiresAt: &expiry, UsageLimit: &limit, IsActive: true}).
			FirstOrCreate(&coupon).Error; err != nil {
			return fmt.Errorf("seed coupon: %w", err)
		}
		return nil
	})
}
