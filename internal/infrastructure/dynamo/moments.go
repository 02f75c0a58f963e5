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

// MomentRepo provides typed DynamoDB operations for the moments table.
type MomentRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewMomentRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *MomentRepo {
	return &MomentRepo{client: client, tableName: tableName, metrics: metrics}
}

func (r *MomentRepo) Create(ctx context.Context, m *domain.Moment) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	m.FeedKey = feedPartition
	if m.Media == nil {
		m.Media = []string{}
	}
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal moment: %w", err)
	}
	item[fieldSortKey] = &types.AttributeValueMemberS{Value: sortKey(m.CreatedAt, m.MomentID)}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(moment_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("moment %s already exists: %w", m.MomentID, domain.ErrConflict)
	}
	return err
}

func (r *MomentRepo) Get(ctx context.Context, momentID string) (m *domain.Moment, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldMomentID, momentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("moment %s not found: %w", momentID, domain.ErrNotFound)
	}
	m = &domain.Moment{}
	if err := attributevalue.UnmarshalMap(out.Item, m); err != nil {
		return nil, err
	}
	return m, nil
}

// maxFilteredRounds caps the queries a title-filtered List issues for one page.
const maxFilteredRounds = 10

// List returns moments newest first. With q.UserID set only that author's
// moments are read; q.Title filters on a title substring. DynamoDB applies the
// filter after Limit, so a filtered page keeps querying until q.Take matches
// are found, the index is exhausted or maxFilteredRounds is reached; only in
// the last case can a short page carry a cursor. The returned cursor is empty
// on the last page.
func (r *MomentRepo) List(ctx context.Context, q domain.MomentQuery) (moments []domain.Moment, next string, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "Query", start, err) }(time.Now())

	partition := fieldFeed
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#p = :p"),
		ExpressionAttributeNames:  map[string]string{},
		ExpressionAttributeValues: map[string]types.AttributeValue{},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(q.Take)),
	}
	if q.UserID != "" {
		partition = fieldUserID
		input.IndexName = aws.String(indexUserCreated)
		input.ExpressionAttributeValues[":p"] = &types.AttributeValueMemberS{Value: q.UserID}
	} else {
		input.IndexName = aws.String(indexFeedCreated)
		input.ExpressionAttributeValues[":p"] = &types.AttributeValueMemberS{Value: feedPartition}
	}
	input.ExpressionAttributeNames["#p"] = partition
	if q.Title != "" {
		input.FilterExpression = aws.String("contains(#t, :t)")
		input.ExpressionAttributeNames["#t"] = "title"
		input.ExpressionAttributeValues[":t"] = &types.AttributeValueMemberS{Value: q.Title}
	}
	startKey, err := decodeCursor(q.Cursor)
	if err != nil {
		return nil, "", err
	}
	input.ExclusiveStartKey = startKey

	var (
		items   []map[string]types.AttributeValue
		lastKey map[string]types.AttributeValue
	)
	for round := 0; ; round++ {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, "", err
		}
		items = append(items, out.Items...)
		lastKey = out.LastEvaluatedKey
		if q.Title == "" || len(items) >= q.Take || len(lastKey) == 0 || round+1 >= maxFilteredRounds {
			break
		}
		input.ExclusiveStartKey = lastKey
	}
	if len(items) > q.Take {
		items = items[:q.Take]
		lastKey = indexKey(items[len(items)-1], partition)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &moments); err != nil {
		return nil, "", err
	}
	return moments, encodeCursor(lastKey), nil
}

// indexKey rebuilds the LastEvaluatedKey a moments index query would report
// after item.
func indexKey(item map[string]types.AttributeValue, partition string) map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue, 3)
	for _, k := range []string{fieldMomentID, partition, fieldSortKey} {
		if v, ok := item[k]; ok {
			key[k] = v
		}
	}
	return key
}
