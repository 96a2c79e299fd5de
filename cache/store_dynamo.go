package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI captures the subset of DynamoDB client methods used by the store.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const (
	dynamoEnsureTableMaxAttempts = 20
	dynamoEnsureTableRetryDelay  = 150 * time.Millisecond
	// BatchWriteItem accepts at most 25 requests per call.
	dynamoBatchLimit = 25
	// dynamoUnprocessedRetries bounds resubmits of throttled batch deletes.
	dynamoUnprocessedRetries = 5

	// Item attributes: cache key, encoded value, expiry in unix millis.
	dynamoAttrKey    = "k"
	dynamoAttrValue  = "v"
	dynamoAttrExpiry = "ea"
)

var errDynamoUnprocessed = errors.New("dynamodb batch delete left unprocessed items")

// dynamoStore keeps one item per cache key in a single-hash-key table.
// Expiry is checked on read; expired items are deleted lazily.
type dynamoStore struct {
	client DynamoAPI
	table  string
	prefix string
	ttl    time.Duration
}

func newDynamoStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	client := cfg.DynamoClient
	if client == nil {
		built, err := newDynamoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client = built
	}
	if err := ensureDynamoTable(ctx, client, cfg.DynamoTable); err != nil {
		return nil, err
	}
	return &dynamoStore{
		client: client,
		table:  cfg.DynamoTable,
		prefix: cfg.Prefix,
		ttl:    orDefault(cfg.DefaultTTL, defaultCacheTTL),
	}, nil
}

// newDynamoClient uses the default credential chain, or static local credentials
// when an endpoint override (DynamoDB Local) is configured.
func newDynamoClient(ctx context.Context, cfg StoreConfig) (*dynamodb.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.DynamoRegion)}
	if cfg.DynamoEndpoint != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	}), nil
}

func (s *dynamoStore) Driver() Driver { return DriverDynamo }

func (s *dynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            dynamoKey(s.itemKey(key)),
		ConsistentRead: aws.Bool(true),
	})
	switch {
	case err != nil:
		return nil, false, err
	case out.Item == nil:
		return nil, false, nil
	case dynamoExpired(out.Item, time.Now()):
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	body, ok := out.Item[dynamoAttrValue].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, errors.New("dynamodb item missing binary value")
	}
	return cloneBytes(body.Value), true, nil
}

func (s *dynamoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(orDefault(ttl, s.ttl)).UnixMilli()
	item := dynamoKey(s.itemKey(key))
	item[dynamoAttrValue] = &types.AttributeValueMemberB{Value: cloneBytes(value)}
	item[dynamoAttrExpiry] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: item})
	return err
}

func (s *dynamoStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(s.itemKey(key)),
	})
	return err
}

func (s *dynamoStore) DeleteMany(ctx context.Context, keys ...string) error {
	itemKeys := make([]string, len(keys))
	for i, k := range keys {
		itemKeys[i] = s.itemKey(k)
	}
	return s.batchDelete(ctx, itemKeys)
}

// batchDelete removes items in chunks of dynamoBatchLimit, resubmitting
// whatever DynamoDB reports back as unprocessed.
func (s *dynamoStore) batchDelete(ctx context.Context, itemKeys []string) error {
	for len(itemKeys) > 0 {
		n := min(len(itemKeys), dynamoBatchLimit)
		writes := make([]types.WriteRequest, n)
		for i, k := range itemKeys[:n] {
			writes[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: dynamoKey(k)}}
		}
		itemKeys = itemKeys[n:]

		for attempt := 0; len(writes) > 0; attempt++ {
			if attempt > dynamoUnprocessedRetries {
				return fmt.Errorf("%w: %d left", errDynamoUnprocessed, len(writes))
			}
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.table: writes},
			})
			if err != nil {
				return err
			}
			writes = out.UnprocessedItems[s.table]
		}
	}
	return nil
}

// Flush deletes the items under this store's prefix. The table may be shared,
// so the scan filters on the key prefix server side and again on each page.
func (s *dynamoStore) Flush(ctx context.Context) error {
	scope := s.itemKey("")
	input := &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		ProjectionExpression:     aws.String("#k"),
		ExpressionAttributeNames: map[string]string{"#k": dynamoAttrKey},
	}
	if scope != "" {
		input.FilterExpression = aws.String("begins_with(#k, :scope)")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: scope},
		}
	}
	pages := dynamodb.NewScanPaginator(s.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return err
		}
		var keys []string
		for _, item := range page.Items {
			if k, ok := item[dynamoAttrKey].(*types.AttributeValueMemberS); ok && strings.HasPrefix(k.Value, scope) {
				keys = append(keys, k.Value)
			}
		}
		if err := s.batchDelete(ctx, keys); err != nil {
			return err
		}
	}
	return nil
}

func (s *dynamoStore) itemKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func dynamoKey(itemKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{dynamoAttrKey: &types.AttributeValueMemberS{Value: itemKey}}
}

func dynamoExpired(item map[string]types.AttributeValue, now time.Time) bool {
	n, ok := item[dynamoAttrExpiry].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	expiresAt, err := strconv.ParseInt(n.Value, 10, 64)
	return err == nil && now.UnixMilli() > expiresAt
}

// ensureDynamoTable creates the table on first use, retrying while a local
// endpoint is still starting up.
func ensureDynamoTable(ctx context.Context, client DynamoAPI, table string) error {
	var lastErr error
	for attempt := 1; attempt <= dynamoEnsureTableMaxAttempts; attempt++ {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err == nil {
			return nil
		}
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
				TableName: aws.String(table),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(dynamoAttrKey), KeyType: types.KeyTypeHash},
				},
				AttributeDefinitions: []types.AttributeDefinition{
					{AttributeName: aws.String(dynamoAttrKey), AttributeType: types.ScalarAttributeTypeS},
				},
				BillingMode: types.BillingModePayPerRequest,
			})
			if err == nil {
				return nil
			}
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				return nil
			}
		}
		if !isDynamoStartupRetryable(err) {
			return fmt.Errorf("ensure dynamo table %q: %w", table, err)
		}
		lastErr = err

		if attempt == dynamoEnsureTableMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dynamoEnsureTableRetryDelay):
		}
	}
	return fmt.Errorf("ensure dynamo table %q: %w", table, lastErr)
}

func isDynamoStartupRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"request send failed", "connection reset by peer", "connection refused", "timeout", "eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
