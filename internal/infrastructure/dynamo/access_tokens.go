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

// AccessTokenRepo provides typed DynamoDB operations for the access_tokens table.
type AccessTokenRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewAccessTokenRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *AccessTokenRepo {
	return &AccessTokenRepo{client: client, tableName: tableName, metrics: metrics}
}

func (r *AccessTokenRepo) Put(ctx context.Context, t *domain.AccessToken) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal access token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AccessTokenRepo) Get(ctx context.Context, tokenID string) (t *domain.AccessToken, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldTokenID, tokenID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("access token not found: %w", domain.ErrNotFound)
	}
	t = &domain.AccessToken{}
	if err := attributevalue.UnmarshalMap(out.Item, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByRefreshToken looks up an access token by its opaque refresh token via GSI.
func (r *AccessTokenRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (t *domain.AccessToken, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "Query:"+indexRefreshToken, start, err) }(time.Now())

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexRefreshToken),
		KeyConditionExpression: aws.String("refresh_token = :rt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: refreshToken},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("access token not found: %w", domain.ErrNotFound)
	}
	t = &domain.AccessToken{}
	if err := attributevalue.UnmarshalMap(out.Items[0], t); err != nil {
		return nil, err
	}
	return t, nil
}

// Rotate swaps oldRefresh for refreshToken and extends both expiries. The swap
// only applies while oldRefresh is still current, so a refresh token is single
// use; a lost race reports ErrUnauthorized.
func (r *AccessTokenRepo) Rotate(ctx context.Context, tokenID, oldRefresh, refreshToken string, expiresAt time.Time, refreshExpiresAt int64) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "UpdateItem", start, err) }(time.Now())

	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldRefreshToken:     refreshToken,
		fieldRefreshExpiresAt: refreshExpiresAt,
		fieldExpiresAt:        expiresAt.UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#old"] = fieldRefreshToken
	ue.Values[":old"] = &types.AttributeValueMemberS{Value: oldRefresh}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldTokenID, tokenID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(token_id) AND #old = :old"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("refresh token already rotated: %w", domain.ErrUnauthorized)
	}
	return err
}

func (r *AccessTokenRepo) Delete(ctx context.Context, tokenID string) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "DeleteItem", start, err) }(time.Now())

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldTokenID, tokenID),
	})
	return err
}
