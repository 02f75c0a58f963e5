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

// CommentRepo provides typed DynamoDB operations for the comments table.
type CommentRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewCommentRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *CommentRepo {
	return &CommentRepo{client: client, tableName: tableName, metrics: metrics}
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	item[fieldSortKey] = &types.AttributeValueMemberS{Value: sortKey(c.CreatedAt, c.CommentID)}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(comment_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("comment %s already exists: %w", c.CommentID, domain.ErrConflict)
	}
	return err
}

func (r *CommentRepo) Get(ctx context.Context, commentID string) (c *domain.Comment, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldCommentID, commentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("comment %s not found: %w", commentID, domain.ErrNotFound)
	}
	c = &domain.Comment{}
	if err := attributevalue.UnmarshalMap(out.Item, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CommentRepo) Delete(ctx context.Context, commentID string) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "DeleteItem", start, err) }(time.Now())

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldCommentID, commentID),
	})
	return err
}

// ListByMoment returns the moment's comments newest first.
func (r *CommentRepo) ListByMoment(ctx context.Context, momentID string, take, skip int) (comments []domain.Comment, err error) {
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
	if err := attributevalue.UnmarshalListOfMaps(items, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
