//go:build integration

package database_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cyberdravida/config"
	"cyberdravida/database"
	"cyberdravida/models"
	courseModels "cyberdravida/models/course"
	"cyberdravida/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := postgres.Host(ctx)
	require.NoError(t, err)
	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.ConnectDb(config.DatabaseConfig{
		Driver:       "postgres",
		DSN:          fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, slug string, price int64) *courseModels.Course {
	course := courseModels.Course{Title: slug, Slug: slug, Price: decimal.NewFromInt(price), IsPublished: true}
	require.NoError(t, db.Create(&course).Error)
	module := courseModels.Module{CourseID: course.ID, Title: "Module", OrderNum: 1}
	require.NoError(t, db.Create(&module).Error)
	require.NoError(t, db.Create(&courseModels.Lesson{ModuleID: module.ID, Title: "Only", OrderNum: 1}).Error)
	return &course
}

func TestPostgresConcurrentVerification(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	svc := services.New(db, services.Options{
		Tx:        database.TxOptions{MaxRetries: 3},
		Currency:  "INR",
		SaltRound: bcrypt.MinCost,
	}, nil)

	student := models.User{Email: "pg@example.com", Name: "PG", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)
	admin := models.User{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&admin).Error)
	course := seedCourse(t, db, "pg-course", 1000)

	payment, err := svc.Payments.SubmitUTR(ctx, student.ID, services.SubmitUTRInput{
		CourseIDs: []uint{course.ID}, UTRNumber: "PG0000000001", TransactionID: "T1",
	})
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Payments.Verify(ctx, payment.ID, admin.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	var stored courseModels.Course
	require.NoError(t, db.First(&stored, course.ID).Error)
	assert.Equal(t, 1, stored.EnrollmentCount)
}

func TestPostgresDuplicateUTRIsTranslated(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	svc := services.New(db, services.Options{Currency: "INR", SaltRound: bcrypt.MinCost}, nil)

	a := models.User{Email: "a@example.com", Name: "A", Role: models.RoleStudent}
	b := models.User{Email: "b@example.com", Name: "B", Role: models.RoleStudent}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	course := seedCourse(t, db, "pg-dup", 500)

	in := services.SubmitUTRInput{CourseIDs: []uint{course.ID}, UTRNumber: "PG0000000002", TransactionID: "T"}
	_, err := svc.Payments.SubmitUTR(ctx, a.ID, in)
	require.NoError(t, err)
	_, err = svc.Payments.SubmitUTR(ctx, b.ID, in)
	assert.ErrorIs(t, err, services.ErrDuplicateUTR)
}
