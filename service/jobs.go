package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/image"
	"github.com/timera-ai/timera-api/common/logger"
	"github.com/timera-ai/timera-api/common/storage"
	"github.com/timera-ai/timera-api/common/tools"
	"github.com/timera-ai/timera-api/model"
	"github.com/timera-ai/timera-api/relay/provider"
)

var (
	ErrEmptyPrompt    = errors.New("prompt must not be empty")
	ErrUnknownTool    = errors.New("unknown tool")
	ErrToolDisabled   = errors.New("tool is disabled")
	ErrWrongCategory  = errors.New("tool does not produce this content type")
	ErrReferenceImage = errors.New("this tool requires a reference image")
)

var pollInterval = 5 * time.Second
var pollDeadline = 10 * time.Minute

// SubmitResult is what a generation endpoint answers with: the created job,
// the artifact when the provider finished synchronously, and the balance
// after the hold (or after confirmation, for synchronous completions).
type SubmitResult struct {
	Job       *model.Job
	ResultUrl string
	Balance   *model.Balance
}

// SubmitGeneration is the single entry point for both video and image
// generation. Credits are held before any provider traffic; every failure
// after the hold releases it.
func SubmitGeneration(ctx context.Context, userId int, jobType string, prompt string, toolId string, referenceImage string, options map[string]interface{}) (*SubmitResult, error) {
	tool, err := resolveTool(jobType, prompt, toolId)
	if err != nil {
		return nil, err
	}
	if tool.RequiresImage {
		if referenceImage == "" {
			return nil, ErrReferenceImage
		}
		_, _, err = image.ValidateReference(referenceImage)
		if err != nil {
			return nil, fmt.Errorf("invalid reference image: %w", err)
		}
	}

	// The hold is the commitment point: from here on the job exists and the
	// credits are reserved until it reaches a terminal state.
	err = model.HoldUserCredits(userId, tool.CreditCost)
	if err != nil {
		return nil, err
	}

	job := &model.Job{
		UserId:      userId,
		Type:        jobType,
		Prompt:      prompt,
		Tool:        tool.Id,
		CreditsCost: tool.CreditCost,
	}
	err = job.Insert()
	if err != nil {
		releaseErr := model.ReleaseUserCredits(userId, tool.CreditCost)
		if releaseErr != nil {
			logger.Errorf(ctx, "failed to release hold after job insert error: %s", releaseErr.Error())
		}
		return nil, err
	}

	httpClient, err := GetHttpClient()
	if err != nil {
		failJob(ctx, job, err.Error())
		return nil, err
	}
	adaptor := provider.NewFalAdaptor(httpClient)
	result, err := adaptor.Generate(ctx, &provider.GenerateRequest{
		Model:          tool.ProviderModel,
		Prompt:         prompt,
		ReferenceImage: referenceImage,
		Options:        options,
	})
	if err != nil {
		failJob(ctx, job, err.Error())
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	if result.Completed {
		resultUrl := storage.RehostArtifact(ctx, result.ResultUrl, jobType)
		err = model.CompleteJob(job.Id, resultUrl)
		if err != nil {
			logger.Errorf(ctx, "failed to complete job %d: %s", job.Id, err.Error())
			return nil, err
		}
		job.Status = model.JobStatusCompleted
		job.ResultUrl = resultUrl
		publishJobUpdate(job)
		balance, err := model.CacheGetUserBalance(userId)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Job: job, ResultUrl: resultUrl, Balance: balance}, nil
	}

	// async path: hold stays outstanding, a pool worker polls the provider
	taskId := result.TaskId
	common.JobCtxGo(context.WithoutCancel(ctx), func() {
		pollUntilSettled(job, tool.ProviderModel, taskId)
	})

	balance, err := model.CacheGetUserBalance(userId)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Job: job, Balance: balance}, nil
}

func resolveTool(jobType string, prompt string, toolId string) (*tools.Tool, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	tool := tools.GetById(toolId)
	if tool == nil {
		return nil, ErrUnknownTool
	}
	if !tool.Enabled {
		return nil, ErrToolDisabled
	}
	if tool.Category != jobType {
		return nil, ErrWrongCategory
	}
	return tool, nil
}

func failJob(ctx context.Context, job *model.Job, message string) {
	err := model.FailJob(job.Id, message)
	if err != nil {
		logger.Errorf(ctx, "failed to fail job %d: %s", job.Id, err.Error())
		return
	}
	job.Status = model.JobStatusFailed
	job.ErrorMessage = message
	publishJobUpdate(job)
}

func pollUntilSettled(job *model.Job, providerModel string, taskId string) {
	ctx := context.Background()
	err := model.MarkJobProcessing(job.Id)
	if err != nil {
		logger.Errorf(ctx, "failed to mark job %d processing: %s", job.Id, err.Error())
	} else {
		job.Status = model.JobStatusProcessing
		publishJobUpdate(job)
	}

	httpClient, err := GetHttpClient()
	if err != nil {
		failJob(ctx, job, err.Error())
		return
	}
	adaptor := provider.NewFalAdaptor(httpClient)

	deadline := time.Now().Add(pollDeadline)
	for {
		if time.Now().After(deadline) {
			failJob(ctx, job, "generation timed out")
			return
		}
		time.Sleep(pollInterval)

		result, err := adaptor.GetResult(ctx, providerModel, taskId)
		if err != nil {
			failJob(ctx, job, err.Error())
			return
		}
		if !result.Completed {
			continue
		}
		resultUrl := storage.RehostArtifact(ctx, result.ResultUrl, job.Type)
		err = model.CompleteJob(job.Id, resultUrl)
		if err != nil {
			logger.Errorf(ctx, "failed to complete job %d: %s", job.Id, err.Error())
			return
		}
		job.Status = model.JobStatusCompleted
		job.ResultUrl = resultUrl
		publishJobUpdate(job)
		return
	}
}
