package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-socfony/internal/config"
)

// tableSpecs describes every table and GSI the service needs.
func tableSpecs(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(tables.Users),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldUserID),
				strAttr(fieldUsername),
				strAttr(fieldEmail),
				strAttr(fieldPhone),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldUserID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUsername, fieldUsername, ""),
				gsi(indexEmail, fieldEmail, ""),
				gsi(indexPhone, fieldPhone, ""),
			},
		},
		{
			TableName:   aws.String(tables.Verifications),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldPhone),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldPhone), KeyType: types.KeyTypeHash},
			},
		},
		{
			TableName:   aws.String(tables.AccessTokens),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldTokenID),
				strAttr(fieldRefreshToken),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldTokenID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexRefreshToken, fieldRefreshToken, ""),
			},
		},
		{
			TableName:   aws.String(tables.Moments),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldMomentID),
				strAttr(fieldUserID),
				strAttr(fieldFeed),
				strAttr(fieldSortKey),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldMomentID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserCreated, fieldUserID, fieldSortKey),
				gsi(indexFeedCreated, fieldFeed, fieldSortKey),
			},
		},
		{
			TableName:   aws.String(tables.MomentLikes),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldMomentID),
				strAttr(fieldUserID),
				strAttr(fieldSortKey),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldMomentID), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(fieldUserID), KeyType: types.KeyTypeRange},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexMomentCreated, fieldMomentID, fieldSortKey),
			},
		},
		{
			TableName:   aws.String(tables.Comments),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldCommentID),
				strAttr(fieldMomentID),
				strAttr(fieldSortKey),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldCommentID), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexMomentCreated, fieldMomentID, fieldSortKey),
			},
		},
		{
			TableName:   aws.String(tables.Storages),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldStorageID),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldStorageID), KeyType: types.KeyTypeHash},
			},
		},
	}
}

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; existing tables are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, spec := range tableSpecs(tables) {
		createTable(ctx, client, spec)
	}
	enableTTL(ctx, client, tables.Verifications, fieldExpiresAt)
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
