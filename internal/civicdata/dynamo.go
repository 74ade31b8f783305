// Package civicdata reads upstream civic datasets (officials, bills) that an
// ingest pipeline lands in DynamoDB tables.
package civicdata

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/civicdeck/backend/internal/logging"
)

// dynamoAPI is the slice of the DynamoDB client the reader uses.
type dynamoAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Config carries the settings for the DynamoDB reader.
type Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// Reader is a read-only client over the civic data tables.
type Reader struct {
	client dynamoAPI
	log    logging.Logger
}

// NewReader builds a reader with its own DynamoDB client.
func NewReader(ctx context.Context, cfg Config, log logging.Logger) (*Reader, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	return NewReaderFromClient(client, log), nil
}

// NewReaderFromClient wires a reader over an existing client.
func NewReaderFromClient(client dynamoAPI, log logging.Logger) *Reader {
	return &Reader{client: client, log: log}
}

// Count returns the table's approximate item count.
func (r *Reader) Count(ctx context.Context, table string) (int64, error) {
	out, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return 0, fmt.Errorf("describe table %s: %w", table, err)
	}
	if out.Table == nil || out.Table.ItemCount == nil {
		return 0, nil
	}
	return *out.Table.ItemCount, nil
}

// GetItem fetches one item by its key fields. Returns nil when absent.
func (r *Reader) GetItem(ctx context.Context, table string, key map[string]any) (map[string]any, error) {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return nil, fmt.Errorf("get item from %s: %w", table, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return item, nil
}

// BatchGet fetches many items by key in a single round trip.
func (r *Reader) BatchGet(ctx context.Context, table string, keys []map[string]any) ([]map[string]any, error) {
	avKeys := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, key := range keys {
		av, err := attributevalue.MarshalMap(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key: %w", err)
		}
		avKeys = append(avKeys, av)
	}

	out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			table: {Keys: avKeys},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch get from %s: %w", table, err)
	}

	items := make([]map[string]any, 0, len(keys))
	for _, raw := range out.Responses[table] {
		var item map[string]any
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ScanAll walks the whole table, following pagination until exhausted.
// projection limits the returned attributes when non-empty.
func (r *Reader) ScanAll(ctx context.Context, table, projection string) ([]map[string]any, error) {
	var items []map[string]any
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{TableName: aws.String(table), ExclusiveStartKey: startKey}
		if projection != "" {
			input.ProjectionExpression = aws.String(projection)
		}

		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}

		for _, raw := range out.Items {
			var item map[string]any
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			items = append(items, item)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	r.log.Debug(ctx, "table scan complete", "table", table, "items", len(items))
	return items, nil
}
