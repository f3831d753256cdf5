package model

import (
	"errors"
	"fmt"

	"github.com/timera-ai/timera-api/common/helper"
	"gorm.io/gorm"
)

const (
	JobTypeVideo = "video"
	JobTypeImage = "image"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type Job struct {
	Id           int    `json:"id"`
	UserId       int    `json:"user_id" gorm:"index"`
	Type         string `json:"type" gorm:"index"`
	Prompt       string `json:"prompt" gorm:"type:text"`
	Tool         string `json:"tool" gorm:"index"`
	Status       string `json:"status" gorm:"index;default:'pending'"`
	CreditsCost  int    `json:"credits_cost"`
	ResultUrl    string `json:"result_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    int64  `json:"created_at" gorm:"bigint;index"`
	UpdatedAt    int64  `json:"updated_at" gorm:"bigint"`
}

func IsTerminalJobStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

func (job *Job) Insert() error {
	job.CreatedAt = helper.GetTimestamp()
	job.UpdatedAt = job.CreatedAt
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	return DB.Create(job).Error
}

func GetJobById(id int, userId int) (*Job, error) {
	if id == 0 || userId == 0 {
		return nil, errors.New("id or userId is empty!")
	}
	job := Job{}
	err := DB.First(&job, "id = ? and user_id = ?", id, userId).Error
	return &job, err
}

func GetUserJobs(userId int, jobType string, startIdx int, num int) ([]*Job, error) {
	var jobs []*Job
	db := DB.Where("user_id = ?", userId)
	if jobType != "" {
		db = db.Where("type = ?", jobType)
	}
	err := db.Order("id desc").Limit(num).Offset(startIdx).Find(&jobs).Error
	return jobs, err
}

func GetUserActiveJobs(userId int) ([]*Job, error) {
	var jobs []*Job
	err := DB.Where("user_id = ? AND status IN ?", userId,
		[]string{JobStatusPending, JobStatusProcessing}).Order("id desc").Find(&jobs).Error
	return jobs, err
}

// MarkJobProcessing moves a pending job forward. Terminal jobs are never
// touched: the guard on status makes every transition a no-op once the job
// has completed or failed.
func MarkJobProcessing(id int) error {
	result := DB.Model(&Job{}).
		Where("id = ? AND status = ?", id, JobStatusPending).
		Updates(map[string]interface{}{
			"status":     JobStatusProcessing,
			"updated_at": helper.GetTimestamp(),
		})
	return result.Error
}

// CompleteJob confirms the job's hold and records the artifact. The terminal
// transition and the credit movement commit together: the status-guarded
// UPDATE picks a single winner among concurrent settlers, and a failed
// confirmation rolls the transition back.
func CompleteJob(id int, resultUrl string) error {
	job, err := getActiveJob(id)
	if err != nil {
		return err
	}
	err = DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Job{}).
			Where("id = ? AND status IN ?", id, []string{JobStatusPending, JobStatusProcessing}).
			Updates(map[string]interface{}{
				"status":     JobStatusCompleted,
				"result_url": resultUrl,
				"updated_at": helper.GetTimestamp(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("job %d is already settled", id)
		}
		return confirmUserCredits(tx, job.UserId, job.CreditsCost)
	})
	if err != nil {
		return err
	}
	CacheInvalidateUserBalance(job.UserId)
	return nil
}

// FailJob releases the job's hold back to the available balance and records
// the error message. Settlement rules match CompleteJob: one winner, credits
// move only when the transition commits.
func FailJob(id int, errorMessage string) error {
	job, err := getActiveJob(id)
	if err != nil {
		return err
	}
	err = DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Job{}).
			Where("id = ? AND status IN ?", id, []string{JobStatusPending, JobStatusProcessing}).
			Updates(map[string]interface{}{
				"status":        JobStatusFailed,
				"error_message": errorMessage,
				"updated_at":    helper.GetTimestamp(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("job %d is already settled", id)
		}
		return releaseUserCredits(tx, job.UserId, job.CreditsCost)
	})
	if err != nil {
		return err
	}
	CacheInvalidateUserBalance(job.UserId)
	return nil
}

func getActiveJob(id int) (*Job, error) {
	job := Job{}
	err := DB.First(&job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if IsTerminalJobStatus(job.Status) {
		return nil, fmt.Errorf("job %d is already %s", id, job.Status)
	}
	return &job, nil
}
