package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/telemetry"
)

// StorageRepo provides typed DynamoDB operations for the storages table.
type StorageRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewStorageRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *StorageRepo {
	return &StorageRepo{client: client, tableName: tableName, metrics: metrics}
}

// Create inserts a storage record. A colliding id is reported as a conflict
// rather than overwriting the existing record.
func (r *StorageRepo) Create(ctx context.Context, s *domain.StorageObject) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(storage_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("storage %s already exists: %w", s.StorageID, domain.ErrConflict)
	}
	return err
}

func (r *StorageRepo) Get(ctx context.Context, storageID string) (s *domain.StorageObject, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldStorageID, storageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("Storage %s not found: %w", storageID, domain.ErrNotFound)
	}
	s = &domain.StorageObject{}
	if err := attributevalue.UnmarshalMap(out.Item, s); err != nil {
		return nil, err
	}
	return s, nil
}
