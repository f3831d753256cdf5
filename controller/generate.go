package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/model"
	"github.com/timera-ai/timera-api/service"
)

type GenerateRequest struct {
	Prompt  string                 `json:"prompt" binding:"required"`
	Tool    string                 `json:"tool" binding:"required,toolid"`
	Options map[string]interface{} `json:"options"`
}

func (req *GenerateRequest) referenceImage() string {
	if req.Options == nil {
		return ""
	}
	if v, ok := req.Options["referenceImage"].(string); ok {
		return v
	}
	return ""
}

// generate is shared by the video and image endpoints; they differ only in
// job type and the name of the artifact field in the response. The response
// always embeds the post-hold balance so the client can reconcile without a
// second round trip.
func generate(c *gin.Context, jobType string, urlField string) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	userId := c.GetInt("id")
	result, err := service.SubmitGeneration(c.Request.Context(), userId, jobType, req.Prompt, req.Tool, req.referenceImage(), req.Options)
	if err != nil {
		var insufficient *model.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error_type":        "INSUFFICIENT_CREDITS",
				"required_credits":  insufficient.Required,
				"available_credits": insufficient.Available,
			})
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrEmptyPrompt) || errors.Is(err, service.ErrUnknownTool) ||
			errors.Is(err, service.ErrToolDisabled) || errors.Is(err, service.ErrWrongCategory) ||
			errors.Is(err, service.ErrReferenceImage) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	payload := gin.H{
		"id":                result.Job.Id,
		"status":            result.Job.Status,
		"credits":           result.Balance.Credits,
		"held_credits":      result.Balance.HeldCredits,
		"available_credits": result.Balance.AvailableCredits,
	}
	if result.ResultUrl != "" {
		payload[urlField] = result.ResultUrl
	}
	c.JSON(http.StatusOK, payload)
}

func GenerateVideo(c *gin.Context) {
	generate(c, model.JobTypeVideo, "video_url")
}

func GenerateImage(c *gin.Context) {
	generate(c, model.JobTypeImage, "image_url")
}

func listJobs(c *gin.Context, jobType string, urlField string) {
	userId := c.GetInt("id")
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pagesize"))
	if pageSize <= 0 {
		pageSize = config.ItemsPerPage * 10
	}
	jobs, err := model.GetUserJobs(userId, jobType, page*pageSize, pageSize)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	list := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		item := gin.H{
			"id":           job.Id,
			"prompt":       job.Prompt,
			"tool":         job.Tool,
			"status":       job.Status,
			"credits_cost": job.CreditsCost,
			"created_at":   job.CreatedAt,
			"updated_at":   job.UpdatedAt,
		}
		if job.ResultUrl != "" {
			item[urlField] = job.ResultUrl
		}
		if job.ErrorMessage != "" {
			item["error_message"] = job.ErrorMessage
		}
		list = append(list, item)
	}
	c.JSON(http.StatusOK, list)
}

func GetUserVideos(c *gin.Context) {
	listJobs(c, model.JobTypeVideo, "video_url")
}

func GetUserImages(c *gin.Context) {
	listJobs(c, model.JobTypeImage, "image_url")
}

func getJob(c *gin.Context, jobType string, urlField string) {
	userId := c.GetInt("id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid job id",
		})
		return
	}
	job, err := model.GetJobById(id, userId)
	if err != nil || job.Type != jobType {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "job not found",
		})
		return
	}
	payload := gin.H{
		"id":           job.Id,
		"prompt":       job.Prompt,
		"tool":         job.Tool,
		"status":       job.Status,
		"credits_cost": job.CreditsCost,
		"created_at":   job.CreatedAt,
		"updated_at":   job.UpdatedAt,
	}
	if job.ResultUrl != "" {
		payload[urlField] = job.ResultUrl
	}
	if job.ErrorMessage != "" {
		payload["error_message"] = job.ErrorMessage
	}
	c.JSON(http.StatusOK, payload)
}

func GetUserVideo(c *gin.Context) {
	getJob(c, model.JobTypeVideo, "video_url")
}

func GetUserImage(c *gin.Context) {
	getJob(c, model.JobTypeImage, "image_url")
}
