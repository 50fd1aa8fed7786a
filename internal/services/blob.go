package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"hrkit/interview-analyzer/internal/config"
	"hrkit/interview-analyzer/internal/models"
)

// Role prefixes namespace blob keys by logical role.
const (
	RolePrefixResume    = "resume"
	RolePrefixJob       = "job"
	RolePrefixInterview = "interview"
)

type BlobStorageService interface {
	Upload(ctx context.Context, key string, content []byte) *ServiceError
	Download(ctx context.Context, key string) ([]byte, *ServiceError)
	ListByPrefix(ctx context.Context, prefix string) ([]models.BlobFileInfo, *ServiceError)
	Delete(ctx context.Context, key string) *ServiceError
	Configured() bool
}

// blobAPI is the slice of the S3 client the service uses; tests swap in fakes.
type blobAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type blobStorageService struct {
	client blobAPI
	bucket string
}

// NewBlobStorageService builds the S3-backed blob store. When the storage
// settings are blank the client stays nil and every method reports a config
// error instead of failing at startup.
func NewBlobStorageService(cfg config.StorageConfig) (BlobStorageService, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return &blobStorageService{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &blobStorageService{client: client, bucket: cfg.Bucket}, nil
}

// RoleKey builds a role-prefixed blob key. Keys already carrying the prefix
// are returned unchanged.
func RoleKey(rolePrefix, filename string) string {
	marked := rolePrefix + "_"
	if len(filename) >= len(marked) && filename[:len(marked)] == marked {
		return filename
	}
	return marked + filename
}

func (b *blobStorageService) Configured() bool {
	return b.client != nil
}

func (b *blobStorageService) Upload(ctx context.Context, key string, content []byte) *ServiceError {
	if b.client == nil {
		return configError("blob storage is not configured")
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return transientError(fmt.Sprintf("failed to upload blob %q", key), err)
	}

	return nil
}

func (b *blobStorageService) Download(ctx context.Context, key string) ([]byte, *ServiceError) {
	if b.client == nil {
		return nil, configError("blob storage is not configured")
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, notFoundError(fmt.Sprintf("blob %q does not exist", key), nil)
		}
		return nil, transientError(fmt.Sprintf("failed to download blob %q", key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, transientError(fmt.Sprintf("failed to read blob %q", key), err)
	}

	return data, nil
}

func (b *blobStorageService) ListByPrefix(ctx context.Context, prefix string) ([]models.BlobFileInfo, *ServiceError) {
	if b.client == nil {
		return nil, configError("blob storage is not configured")
	}

	var files []models.BlobFileInfo
	var continuation *string

	for {
		out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, transientError(fmt.Sprintf("failed to list blobs with prefix %q", prefix), err)
		}

		for _, obj := range out.Contents {
			info := models.BlobFileInfo{
				Name:        aws.ToString(obj.Key),
				DisplayName: stripRolePrefix(aws.ToString(obj.Key)),
				Size:        aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.Format(time.RFC3339)
			}
			files = append(files, info)
		}

		if out.NextContinuationToken == nil {
			break
		}
		continuation = out.NextContinuationToken
	}

	// Newest first
	sort.Slice(files, func(i, j int) bool {
		return files[i].LastModified > files[j].LastModified
	})

	return files, nil
}

func (b *blobStorageService) Delete(ctx context.Context, key string) *ServiceError {
	if b.client == nil {
		return configError("blob storage is not configured")
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return transientError(fmt.Sprintf("failed to delete blob %q", key), err)
	}

	return nil
}

func stripRolePrefix(key string) string {
	for _, role := range []string{RolePrefixResume, RolePrefixJob, RolePrefixInterview} {
		marked := role + "_"
		if len(key) > len(marked) && key[:len(marked)] == marked {
			return key[len(marked):]
		}
	}
	return key
}
