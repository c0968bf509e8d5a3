package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether enough is configured to build an S3Store.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string

	initMu sync.Mutex
	ready  bool
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.ready = true
	return nil
}

func (s *S3Store) Put(ctx context.Context, runID string, content []byte) error {
	runID, err := checkRunID(runID)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(runID), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (s *S3Store) Get(ctx context.Context, runID string) ([]byte, error) {
	runID, err := checkRunID(runID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(runID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}
