package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/telemetry"
)

// VerificationRepo stores one OTP per phone number.
// PK: phone. expires_at is the table TTL attribute.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
	metrics   *telemetry.Metrics
}

func NewVerificationRepo(client *dynamodb.Client, tableName string, metrics *telemetry.Metrics) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName, metrics: metrics}
}

// Put stores v, replacing any previous code for the same phone.
func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationCode) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, phone string) (v *domain.VerificationCode, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "GetItem", start, err) }(time.Now())

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldPhone, phone),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
	}
	v = &domain.VerificationCode{}
	if err := attributevalue.UnmarshalMap(out.Item, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReserveAttempt atomically counts one verification attempt and returns the new
// total. The write is conditioned on fewer than limit prior attempts, so
// concurrent callers can never take more than limit attempts between them. A
// missing or exhausted code is reported as ErrNotFound.
func (r *VerificationRepo) ReserveAttempt(ctx context.Context, phone string, limit int) (n int, err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "UpdateItem", start, err) }(time.Now())

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldPhone, phone),
		UpdateExpression:         aws.String("ADD #a :one"),
		ConditionExpression:      aws.String("attribute_exists(phone) AND (attribute_not_exists(#a) OR #a < :max)"),
		ExpressionAttributeNames: map[string]string{"#a": fieldAttempts},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(limit)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("verification code not found or exhausted: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	attr, ok := out.Attributes[fieldAttempts].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attempts attribute missing from update result")
	}
	return strconv.Atoi(attr.Value)
}

func (r *VerificationRepo) Delete(ctx context.Context, phone string) (err error) {
	defer func(start time.Time) { observe(r.metrics, r.tableName, "DeleteItem", start, err) }(time.Now())

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldPhone, phone),
	})
	return err
}
