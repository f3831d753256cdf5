package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/logger"
)

// Artifact re-hosting: providers hand back short-lived CDN URLs, so completed
// results are copied into our own S3-compatible bucket when one is configured.

func extensionFromContentType(contentType string) string {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "mp4"):
		return ".mp4"
	case strings.Contains(contentType, "webm"):
		return ".webm"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ""
	}
}

func newS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     config.ArtifactAccessKey,
				SecretAccessKey: config.ArtifactSecretKey,
			}, nil
		}))),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: config.ArtifactEndpoint}, nil
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	// Path-style avoids TLS problems with virtual-host bucket subdomains on R2
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// RehostArtifact downloads the provider URL and uploads it to the configured
// bucket, returning the public URL. When re-hosting is disabled or anything
// fails, the original URL is returned so the job can still complete.
func RehostArtifact(ctx context.Context, sourceUrl string, kind string) string {
	if !config.ArtifactStoreEnabled || sourceUrl == "" {
		return sourceUrl
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceUrl, nil)
	if err != nil {
		return sourceUrl
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warnf(ctx, "artifact download failed, keeping provider url: %s", err.Error())
		return sourceUrl
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sourceUrl
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024*1024))
	if err != nil {
		return sourceUrl
	}

	contentType := resp.Header.Get("Content-Type")
	filename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102-150405"), uuid.New().String(), extensionFromContentType(contentType))
	objectKey := path.Join(kind, filename)

	client, err := newS3Client(ctx)
	if err != nil {
		logger.Errorf(ctx, "artifact store client init failed: %s", err.Error())
		return sourceUrl
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(config.ArtifactBucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.Errorf(ctx, "artifact upload failed: %s", err.Error())
		return sourceUrl
	}

	if config.ArtifactPublicBase != "" {
		return fmt.Sprintf("%s/%s", config.ArtifactPublicBase, objectKey)
	}
	return fmt.Sprintf("%s/%s/%s", config.ArtifactEndpoint, config.ArtifactBucketName, objectKey)
}
