package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/civicdeck/backend/internal/logging"
)

// maxSQSDelaySeconds is the hard cap SQS puts on DelaySeconds.
const maxSQSDelaySeconds = 900

// sqsAPI is the slice of the SQS client the enqueuer uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSConfig carries the settings for the SQS-backed enqueuer.
type SQSConfig struct {
	QueueURL     string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// SQSEnqueuer delivers tasks to one SQS queue. Delays beyond the SQS cap
// are clamped; the requested full delay and deadline travel as message
// attributes so the consumer can honor them.
type SQSEnqueuer struct {
	client   sqsAPI
	queueURL string
	log      logging.Logger
}

// NewSQSEnqueuer builds an enqueuer with its own SQS client.
func NewSQSEnqueuer(ctx context.Context, cfg SQSConfig, log logging.Logger) (*SQSEnqueuer, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	return NewSQSEnqueuerFromClient(client, cfg.QueueURL, log), nil
}

// NewSQSEnqueuerFromClient wires an enqueuer over an existing client.
func NewSQSEnqueuerFromClient(client sqsAPI, queueURL string, log logging.Logger) *SQSEnqueuer {
	return &SQSEnqueuer{client: client, queueURL: queueURL, log: log}
}

func (e *SQSEnqueuer) Enqueue(ctx context.Context, payload any, opts Options) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	delaySeconds := int64(opts.ScheduleDelay.Seconds())
	clamped := delaySeconds
	if clamped > maxSQSDelaySeconds {
		clamped = maxSQSDelaySeconds
		e.log.Warn(ctx, "task delay exceeds sqs cap, clamping",
			"requested_seconds", delaySeconds, "clamped_seconds", clamped)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(e.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(clamped),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"scheduleDelaySeconds": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatInt(delaySeconds, 10)),
			},
			"dispatchDeadlineSeconds": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatInt(int64(opts.DispatchDeadline.Seconds()), 10)),
			},
		},
	}

	if _, err := e.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs send: %w", err)
	}
	return nil
}
