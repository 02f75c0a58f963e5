package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/telemetry"
)

// LikeRepo stores like-edges. PK: moment_id, SK: user_id.
type LikeRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewLikeRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *LikeRepo {
	return &LikeRepo{client: client, tableName: tableName, metrics: metrics}
}

// Upsert stores the edge unless it already exists; an existing edge keeps its
// original timestamp. created reports whether a new edge was written.
func (r *LikeRepo) Upsert(ctx context.Context, l *domain.MomentLike) (created bool, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return false, fmt.Errorf("marshal like: %w", err)
	}
	item[fieldSortKey] = &types.AttributeValueMemberS{Value: sortKey(l.CreatedAt, l.UserID)}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *LikeRepo) Delete(ctx context.Context, momentID, userID string) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "DeleteItem", start, err) }(time.Now())

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey(fieldMomentID, momentID, fieldUserID, userID),
		ConditionExpression: aws.String("attribute_exists(user_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("like not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *LikeRepo) Exists(ctx context.Context, momentID, userID string) (ok bool, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  compositeKey(fieldMomentID, momentID, fieldUserID, userID),
		ProjectionExpression: aws.String("user_id"),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// ListByMoment returns the moment's likes newest first.
func (r *LikeRepo) ListByMoment(ctx context.Context, momentID string, take, skip int) (likes []domain.MomentLike, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "Query:"+indexMomentCreated, start, err) }(time.Now())

	items, err := collectPage(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexMomentCreated),
		KeyConditionExpression: aws.String("moment_id = :m"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m": &types.AttributeValueMemberS{Value: momentID},
		},
		ScanIndexForward: aws.Bool(false),
	}, skip, take)
	if err != nil {
		return nil, err
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}
