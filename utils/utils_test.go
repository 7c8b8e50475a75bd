package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Web Hacking 101":          "web-hacking-101",
		"  Ethical -- Hacking!!  ": "ethical-hacking",
		"C++ & Go":                 "c-go",
		"???":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestGenerateCertificateNumber(t *testing.T) {
	at := time.UnixMilli(1710410400000)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := GenerateCertificateNumber(at)
		assert.Regexp(t, `^CD-1710410400000-[A-Z0-9]{6}$`, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestParsePage(t *testing.T) {
	page, limit, offset := ParsePage(0, 0, 20, 100)
	assert.Equal(t, []int{1, 20, 0}, []int{page, limit, offset})

	page, limit, offset = ParsePage(3, 500, 20, 100)
	assert.Equal(t, []int{3, 100, 200}, []int{page, limit, offset})

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

type countingJob struct {
	calls int
	err   error
}

func (j *countingJob) Reconcile(ctx context.Context) (int, error) {
	j.calls++
	return 3, j.err
}

func (j *countingJob) DeactivateExpired(ctx context.Context) (int64, error) {
	j.calls++
	return 2, j.err
}

func TestMaintenanceJobsRun(t *testing.T) {
	job := &countingJob{}
	RunReconciliation(context.Background(), job)
	RunCouponExpiry(context.Background(), job)
	assert.Equal(t, 2, job.calls)

	failing := &countingJob{err: errors.New("db down")}
	RunReconciliation(context.Background(), failing)
	assert.Equal(t, 1, failing.calls)
}

func TestInitializeMaintenanceSchedulerRejectsBadExpression(t *testing.T) {
	job := &countingJob{}
	_, err := InitializeMaintenanceScheduler(context.Background(), "not a cron", "@daily", job, job)
	assert.Error(t, err)

	c, err := InitializeMaintenanceScheduler(context.Background(), "@every 1h", "@daily", job, job)
	assert.NoError(t, err)
	c.Stop()
	assert.Len(t, c.Entries(), 2)
}
