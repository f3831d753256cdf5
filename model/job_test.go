package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createHeldJob(t *testing.T, userId int, cost int) *Job {
	t.Helper()
	require.NoError(t, HoldUserCredits(userId, cost))
	job := &Job{
		UserId:      userId,
		Type:        JobTypeVideo,
		Prompt:      "a cat surfing at sunset",
		Tool:        "kling",
		CreditsCost: cost,
	}
	require.NoError(t, job.Insert())
	return job
}

func TestCompleteJobConfirmsHold(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	job := createHeldJob(t, user.Id, 55)
	requireBalance(t, user.Id, 100, 55, 45)

	require.NoError(t, CompleteJob(job.Id, "https://cdn.example.com/video.mp4"))

	// confirm moved the hold into a permanent deduction
	requireBalance(t, user.Id, 45, 0, 45)

	stored, err := GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, stored.Status)
	assert.Equal(t, "https://cdn.example.com/video.mp4", stored.ResultUrl)
}

func TestFailJobReleasesHold(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	job := createHeldJob(t, user.Id, 55)

	require.NoError(t, FailJob(job.Id, "provider rejected the prompt"))

	// release returned the hold, total untouched
	requireBalance(t, user.Id, 100, 0, 100)

	stored, err := GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, "provider rejected the prompt", stored.ErrorMessage)
}

func TestTerminalJobIsImmutable(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	job := createHeldJob(t, user.Id, 55)
	require.NoError(t, CompleteJob(job.Id, "https://cdn.example.com/video.mp4"))
	requireBalance(t, user.Id, 45, 0, 45)

	// a late failure report must neither flip the status nor touch credits
	require.Error(t, FailJob(job.Id, "late timeout"))
	require.Error(t, CompleteJob(job.Id, "https://cdn.example.com/other.mp4"))
	requireBalance(t, user.Id, 45, 0, 45)

	stored, err := GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, stored.Status)
	assert.Equal(t, "https://cdn.example.com/video.mp4", stored.ResultUrl)
}

func TestConcurrentSettlersMoveCreditsOnce(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	job := createHeldJob(t, user.Id, 55)

	// a success report and a failure report race to settle the same job
	errs := make(chan error, 2)
	go func() { errs <- CompleteJob(job.Id, "https://cdn.example.com/video.mp4") }()
	go func() { errs <- FailJob(job.Id, "timed out") }()

	settled := 0
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			settled++
		}
	}
	require.Equal(t, 1, settled, "exactly one settler must win")

	stored, err := GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	switch stored.Status {
	case JobStatusCompleted:
		requireBalance(t, user.Id, 45, 0, 45)
	case JobStatusFailed:
		requireBalance(t, user.Id, 100, 0, 100)
	default:
		t.Fatalf("job left in non-terminal status %q", stored.Status)
	}
}

func TestCompleteJobRollsBackWithoutHold(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	job := createHeldJob(t, user.Id, 55)
	require.NoError(t, ReleaseUserCredits(user.Id, 55))

	// the hold is gone, so the confirmation fails and the terminal
	// transition must not survive the rollback
	require.Error(t, CompleteJob(job.Id, "https://cdn.example.com/video.mp4"))
	requireBalance(t, user.Id, 100, 0, 100)

	stored, err := GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)
}

func TestMarkJobProcessingGuard(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 100)
	job := createHeldJob(t, user.Id, 55)

	require.NoError(t, MarkJobProcessing(job.Id))
	stored, err := GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusProcessing, stored.Status)

	require.NoError(t, FailJob(job.Id, "timed out"))
	// processing a failed job is a silent no-op, not a resurrection
	require.NoError(t, MarkJobProcessing(job.Id))
	stored, err = GetJobById(job.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
}

func TestGetUserJobsFiltersByType(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 1000)

	video := createHeldJob(t, user.Id, 55)
	require.NoError(t, HoldUserCredits(user.Id, 6))
	imageJob := &Job{
		UserId:      user.Id,
		Type:        JobTypeImage,
		Prompt:      "a lighthouse in fog",
		Tool:        "flux",
		CreditsCost: 6,
	}
	require.NoError(t, imageJob.Insert())

	videos, err := GetUserJobs(user.Id, JobTypeVideo, 0, 10)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, video.Id, videos[0].Id)

	images, err := GetUserJobs(user.Id, JobTypeImage, 0, 10)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, imageJob.Id, images[0].Id)

	active, err := GetUserActiveJobs(user.Id)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestJobsInvisibleToOtherUsers(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, 100)
	job := createHeldJob(t, owner.Id, 55)

	other := &User{Email: "other@example.com", Password: "secret-password"}
	require.NoError(t, other.Insert())

	_, err := GetJobById(job.Id, other.Id)
	require.Error(t, err)
}
