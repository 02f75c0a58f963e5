package dynamo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/telemetry"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// UpdateExpr is a SET expression with its placeholder maps.
type UpdateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
// Fields are emitted in sorted order so the expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (*UpdateExpr, error) {
	if len(updates) == 0 {
		return nil, errors.New("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := &UpdateExpr{
		Expr:   "SET ",
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return ue, nil
}

// sortKey is a fixed-width, lexically ordered creation key. The id suffix
// keeps keys unique for items created in the same nanosecond.
func sortKey(t time.Time, id string) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z") + "#" + id
}

// encodeCursor serialises a LastEvaluatedKey made of string attributes.
// An empty key yields an empty cursor.
func encodeCursor(key map[string]types.AttributeValue) string {
	if len(key) == 0 {
		return ""
	}
	flat := make(map[string]string, len(key))
	for k, v := range key {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			flat[k] = s.Value
		}
	}
	b, _ := json.Marshal(flat)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
	}
	var flat map[string]string
	if err := json.Unmarshal(b, &flat); err != nil || len(flat) == 0 {
		return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
	}
	key := make(map[string]types.AttributeValue, len(flat))
	for k, v := range flat {
		key[k] = &types.AttributeValueMemberS{Value: v}
	}
	return key, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// observe records a DynamoDB call in metrics. Domain not-found and
// conditional-check failures are counted apart from real errors.
func observe(m *telemetry.Metrics, table, op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		status = "not_found"
	case isConditionFailed(err):
		status = "conflict"
	default:
		status = "error"
	}
	m.ObserveDB(table, op, status, time.Since(start))
}

// collectPage runs input (newest first) until skip+take items are read or the
// index is exhausted, and returns items[skip:skip+take].
func collectPage(ctx context.Context, client *dynamodb.Client, input *dynamodb.QueryInput, skip, take int) ([]map[string]types.AttributeValue, error) {
	if take <= 0 {
		return nil, nil
	}
	skip = max(skip, 0)
	if skip > math.MaxInt32-take {
		return nil, fmt.Errorf("page offset %d out of range: %w", skip, domain.ErrBadRequest)
	}
	want := skip + take
	var items []map[string]types.AttributeValue
	for {
		input.Limit = aws.Int32(int32(want - len(items)))
		out, err := client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(items) >= want || len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if skip >= len(items) {
		return nil, nil
	}
	return items[skip:min(want, len(items))], nil
}
