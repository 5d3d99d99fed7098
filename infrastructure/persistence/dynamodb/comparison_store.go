package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/infrastructure/persistence/abstractions"
	"graphdiff/infrastructure/persistence/schema"
	apperrors "graphdiff/pkg/errors"
)

const (
	entityType = "COMPARISON"
	metadataSK = "METADATA"

	// MaxRecordBytes leaves headroom under the 400KB item limit for the
	// summary attributes
	MaxRecordBytes = 390 * 1024
)

// API is the subset of the DynamoDB client used by the store
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ComparisonStore persists comparisons in a single DynamoDB table
type ComparisonStore struct {
	client    API
	tableName string
	codec     *schema.Codec
	maxRecord int
	logger    *zap.Logger
}

// NewComparisonStore creates a new DynamoDB comparison store
func NewComparisonStore(client API, tableName string, logger *zap.Logger) *ComparisonStore {
	return &ComparisonStore{
		client:    client,
		tableName: tableName,
		codec:     schema.NewCodec(true),
		maxRecord: MaxRecordBytes,
		logger:    logger,
	}
}

// comparisonItem represents the DynamoDB item structure for a comparison
type comparisonItem struct {
	PK              string  `dynamodbav:"PK"`
	SK              string  `dynamodbav:"SK"`
	EntityType      string  `dynamodbav:"EntityType"`
	ComparisonID    string  `dynamodbav:"ComparisonID"`
	Name1           string  `dynamodbav:"Name1"`
	Name2           string  `dynamodbav:"Name2"`
	SimilarityScore float64 `dynamodbav:"SimilarityScore"`
	TotalChanges    int     `dynamodbav:"TotalChanges"`
	CreatedAt       string  `dynamodbav:"CreatedAt"`
	Record          []byte  `dynamodbav:"Record,omitempty"`
}

func (i comparisonItem) summary() comparison.Summary {
	return comparison.Summary{
		ComparisonID:    i.ComparisonID,
		Name1:           i.Name1,
		Name2:           i.Name2,
		SimilarityScore: i.SimilarityScore,
		TotalChanges:    i.TotalChanges,
		CreatedAt:       i.CreatedAt,
	}
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "COMPARISON#" + id},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

// Put persists a comparison. Compressed records that would not fit in a
// single item are rejected before calling DynamoDB.
func (s *ComparisonStore) Put(ctx context.Context, id string, result *comparison.Result) error {
	record, err := s.codec.Encode(result)
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}
	if len(record) > s.maxRecord {
		return apperrors.NewStoreError("put",
			fmt.Errorf("record is %d bytes, above the %d byte item budget", len(record), s.maxRecord)).
			WithCode("RECORD_TOO_LARGE")
	}

	summary := result.Summarize()
	item := comparisonItem{
		PK:              "COMPARISON#" + id,
		SK:              metadataSK,
		EntityType:      entityType,
		ComparisonID:    id,
		Name1:           summary.Name1,
		Name2:           summary.Name2,
		SimilarityScore: summary.SimilarityScore,
		TotalChanges:    summary.TotalChanges,
		CreatedAt:       summary.CreatedAt,
		Record:          record,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewStoreError("put", fmt.Errorf("failed to marshal comparison: %w", err))
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}

	s.logger.Debug("Comparison saved to DynamoDB",
		zap.String("comparisonId", id),
		zap.Int("recordBytes", len(record)),
	)
	return nil
}

// Get loads a comparison by id
func (s *ComparisonStore) Get(ctx context.Context, id string) (*comparison.Result, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(id),
	})
	if err != nil {
		return nil, apperrors.NewStoreError("get", err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}

	var item comparisonItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewStoreError("get", fmt.Errorf("failed to unmarshal comparison: %w", err))
	}

	result, err := s.codec.Decode(item.Record)
	if err != nil {
		return nil, apperrors.NewStoreError("get", err)
	}
	return result, nil
}

// List scans summary attributes of every comparison item
func (s *ComparisonStore) List(ctx context.Context, opts ports.ListOptions) ([]comparison.Summary, int, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityType))
	projection := expression.NamesList(
		expression.Name("ComparisonID"),
		expression.Name("Name1"),
		expression.Name("Name2"),
		expression.Name("SimilarityScore"),
		expression.Name("TotalChanges"),
		expression.Name("CreatedAt"),
	)
	expr, err := expression.NewBuilder().WithFilter(filter).WithProjection(projection).Build()
	if err != nil {
		return nil, 0, apperrors.NewStoreError("list", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []comparison.Summary
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, 0, apperrors.NewStoreError("list", err)
		}

		var page []comparisonItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, 0, apperrors.NewStoreError("list", err)
		}
		for _, item := range page {
			items = append(items, item.summary())
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	page, total := abstractions.Page(items, opts)
	return page, total, nil
}

// Delete removes a comparison; deleting a missing id is a NotFound error
func (s *ComparisonStore) Delete(ctx context.Context, id string) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewStoreError("delete", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      key(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return apperrors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
		}
		return apperrors.NewStoreError("delete", err)
	}
	return nil
}

// Backend implements ports.ComparisonStore
func (s *ComparisonStore) Backend() string {
	return "dynamodb"
}
