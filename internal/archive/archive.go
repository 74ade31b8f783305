// Package archive keeps raw upstream payloads in S3 so a hydration run can
// be replayed or audited after the fact.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/logging"
)

// s3API is the slice of the S3 client the archive uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config carries the settings for the S3 archive.
type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// Archive writes point-in-time JSON snapshots of upstream responses.
type Archive struct {
	client s3API
	bucket string
	clock  clockx.Clock
	newID  func() string
	log    logging.Logger
}

// New builds an archive with its own S3 client.
func New(ctx context.Context, cfg Config, clock clockx.Clock, log logging.Logger) (*Archive, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewFromClient(client, cfg.Bucket, clock, log), nil
}

// NewFromClient wires an archive over an existing client.
func NewFromClient(client s3API, bucket string, clock clockx.Clock, log logging.Logger) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		clock:  clock,
		newID:  uuid.NewString,
		log:    log,
	}
}

// PutJSON stores the payload under raw/<source>/<yyyy/mm/dd>/<id>-<uuid>.json
// and returns the object key. The uuid suffix keeps repeated snapshots of the
// same record within a day from overwriting each other.
func (a *Archive) PutJSON(ctx context.Context, source, id string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal archive payload: %w", err)
	}

	key := fmt.Sprintf("raw/%s/%s/%s-%s.json",
		source, a.clock.Now().UTC().Format("2006/01/02"), id, a.newID())

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	a.log.Debug(ctx, "payload archived", "source", source, "key", key)
	return key, nil
}
