package services

import (
	"fmt"
	"testing"
	"time"

	"cyberdravida/config"
	"cyberdravida/database"
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testClock = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testOptions() Options {
	return Options{
		Now:       func() time.Time { return testClock },
		Tx:        database.TxOptions{MaxRetries: 2},
		Currency:  "INR",
		SaltRound: bcrypt.MinCost,
	}
}

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return New(db, testOptions(), nil), db
}

func createUser(t *testing.T, db *gorm.DB, email string, role string) *models.User {
	t.Helper()
	user := models.User{Email: email, Name: "User " + email, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// createCourse adds a published course with one module of the given number of lessons
func createCourse(t *testing.T, db *gorm.DB, title string, price int64, lessons int) (*courseModels.Course, []courseModels.Lesson) {
	t.Helper()
	course := courseModels.Course{
		Title:       title,
		Slug:        fmt.Sprintf("course-%d-%s", time.Now().UnixNano(), title),
		Price:       decimal.NewFromInt(price),
		Level:       courseModels.LevelBeginner,
		IsPublished: true,
	}
	require.NoError(t, db.Create(&course).Error)

	module := courseModels.Module{CourseID: course.ID, Title: "Module 1", OrderNum: 1}
	require.NoError(t, db.Create(&module).Error)

	out := make([]courseModels.Lesson, 0, lessons)
	for i := 0; i < lessons; i++ {
		lesson := courseModels.Lesson{ModuleID: module.ID, Title: fmt.Sprintf("Lesson %d", i+1), OrderNum: i + 1}
		require.NoError(t, db.Create(&lesson).Error)
		out = append(out, lesson)
	}
	return &course, out
}

func reloadCourse(t *testing.T, db *gorm.DB, id uint) courseModels.Course {
	t.Helper()
	var course courseModels.Course
	require.NoError(t, db.First(&course, id).Error)
	return course
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func addToCart(t *testing.T, db *gorm.DB, userID, courseID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, CourseID: courseID}).Error)
}
