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

// batchGetLimit is the DynamoDB BatchGetItem key limit.
const batchGetLimit = 100

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewUserRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, metrics: metrics}
}

// Create inserts a new user; an existing user_id is a conflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s already exists: %w", u.UserID, domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (u *domain.User, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s not found: %w", userID, domain.ErrNotFound)
	}
	u = &domain.User{}
	if err := attributevalue.UnmarshalMap(out.Item, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryGSI(ctx, indexUsername, fieldUsername, username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, indexEmail, fieldEmail, email)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.queryGSI(ctx, indexPhone, fieldPhone, phone)
}

// BatchGet loads users by id. Missing ids are skipped; the result follows the order of ids.
func (r *UserRepo) BatchGet(ctx context.Context, ids []string) (users []domain.User, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "BatchGetItem", start, err) }(time.Now())

	if len(ids) == 0 {
		return nil, nil
	}
	byID := make(map[string]domain.User, len(ids))
	for startIdx := 0; startIdx < len(ids); startIdx += batchGetLimit {
		end := min(startIdx+batchGetLimit, len(ids))
		keys := make([]map[string]types.AttributeValue, 0, end-startIdx)
		seen := make(map[string]struct{}, end-startIdx)
		for _, id := range ids[startIdx:end] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			keys = append(keys, strKey(fieldUserID, id))
		}
		request := map[string]types.KeysAndAttributes{r.tableName: {Keys: keys}}
		for attempt := 0; len(request) > 0 && attempt < 5; attempt++ {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, err
			}
			var page []domain.User
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &page); err != nil {
				return nil, err
			}
			for _, u := range page {
				byID[u.UserID] = u
			}
			request = out.UnprocessedKeys
		}
		if len(request) > 0 {
			return nil, fmt.Errorf("batch get users: unprocessed keys remain")
		}
	}
	users = make([]domain.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
			delete(byID, id)
		}
	}
	return users, nil
}

// Update applies updates to an existing user and returns the stored result.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) (u *domain.User, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "UpdateItem", start, err) }(time.Now())

	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("user %s not found: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u = &domain.User{}
	if err := attributevalue.UnmarshalMap(out.Attributes, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (u *domain.User, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "Query:"+index, start, err) }(time.Now())

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user with %s %q not found: %w", attr, value, domain.ErrNotFound)
	}
	u = &domain.User{}
	if err := attributevalue.UnmarshalMap(out.Items[0], u); err != nil {
		return nil, err
	}
	return u, nil
}
