package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/wtsr/backend/internal/domain"
)

// ProductStore keeps product records in a DynamoDB table keyed by "asin"
type ProductStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewProductStore returns a configured ProductStore
func NewProductStore(client DynamoDBAPI, tableName string) *ProductStore {
	return &ProductStore{
		client:    client,
		tableName: tableName,
	}
}

// Get reads a single record
func (s *ProductStore) Get(ctx context.Context, asin string) (*domain.ProductRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"asin": &types.AttributeValueMemberS{Value: asin},
		},
	})
	if err != nil {
		return nil, storeError("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrProductNotFound
	}

	var record domain.ProductRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("%w: unmarshal item: %v", domain.ErrStoreUnavailable, err)
	}
	return &record, nil
}

// Upsert overwrites the whole item unconditionally; PutItem is atomic per item
func (s *ProductStore) Upsert(ctx context.Context, record *domain.ProductRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return storeError("put item", err)
	}
	return nil
}

// ListMissingImages scans for records without a primary image and orders them
// least recently fetched first, never-fetched records leading.
func (s *ProductStore) ListMissingImages(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	input := &dynamodb.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: awsString("attribute_not_exists(image_url) OR image_url = :empty"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberS{Value: ""},
		},
	}

	var records []domain.ProductRecord
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeError("scan", err)
		}

		var batch []domain.ProductRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("%w: unmarshal items: %v", domain.ErrStoreUnavailable, err)
		}
		for i := range batch {
			if !batch[i].HasImage() {
				records = append(records, batch[i])
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].LastFetchedAt, records[j].LastFetchedAt
		switch {
		case a == nil && b == nil:
			return records[i].ASIN < records[j].ASIN
		case a == nil:
			return true
		case b == nil:
			return false
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return records[i].ASIN < records[j].ASIN
		}
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func storeError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s: %s", domain.ErrStoreUnavailable, op, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

func awsString(s string) *string { return &s }
