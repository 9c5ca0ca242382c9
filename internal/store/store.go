// Package store keeps translated texts in a DynamoDB table keyed by owner and
// timestamp.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/logger"
)

const (
	// DefaultTableName is used when no table name is configured.
	DefaultTableName = "Comments"

	attrOwner     = "owner_id"
	attrTimestamp = "timestamp"
	attrText      = "text"

	// batchWriteLimit is the maximum number of requests per BatchWriteItem.
	batchWriteLimit = 25

	capacityUnits = 10
	createTimeout = 5 * time.Minute
)

// API is the part of the DynamoDB client used by Store.
type API interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Record is one stored text.
type Record struct {
	OwnerID   string    `dynamodbav:"owner_id" json:"owner_id"`
	Timestamp time.Time `dynamodbav:"timestamp,unixtime" json:"timestamp"`
	Text      string    `dynamodbav:"text" json:"text"`
}

// Store is a handle on one table. It is safe for concurrent use.
type Store struct {
	api  API
	name string
	log  *logrus.Entry

	mu      sync.RWMutex
	dropped bool
}

// Open loads the named table, creating it and waiting until it is active
// when it does not exist yet.
func Open(ctx context.Context, api API, name string, log *logrus.Logger) (*Store, error) {
	if name == "" {
		name = DefaultTableName
	}
	s := &Store{
		api:  api,
		name: name,
		log:  logger.OrDefault(log).WithFields(logrus.Fields{"component": "store", "table": name}),
	}

	found, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := s.create(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name returns the table name.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) load(ctx context.Context) (bool, error) {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.name)})
	if isResourceNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, wrapError(err)
	}
	s.log.Debug("Loaded table")
	return true, nil
}

func (s *Store) create(ctx context.Context) error {
	s.log.Info("Creating table")

	_, err := s.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrOwner), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrTimestamp), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrOwner), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrTimestamp), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(capacityUnits),
			WriteCapacityUnits: aws.Int64(capacityUnits),
		},
	})
	if err != nil {
		return wrapError(err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.name)}, createTimeout); err != nil {
		return wrapError(fmt.Errorf("wait for table %s: %w", s.name, err))
	}
	return nil
}

func (s *Store) verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dropped {
		return ErrTableMissing
	}
	return nil
}

func key(ownerID string, at time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOwner:     &types.AttributeValueMemberS{Value: ownerID},
		attrTimestamp: &types.AttributeValueMemberN{Value: fmt.Sprint(at.Unix())},
	}
}

// Put stores r, replacing any record with the same key.
func (s *Store) Put(ctx context.Context, r Record) error {
	if err := s.verify(); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return newError(codeSerialization, fmt.Errorf("marshal record: %w", err))
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.name),
		Item:      item,
	})
	return wrapError(err)
}

// PutMany stores records in batches. Items left unprocessed by DynamoDB are
// reported as an error rather than retried.
func (s *Store) PutMany(ctx context.Context, records []Record) error {
	if err := s.verify(); err != nil {
		return err
	}

	for start := 0; start < len(records); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(records))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, r := range records[start:end] {
			item, err := attributevalue.MarshalMap(r)
			if err != nil {
				return newError(codeSerialization, fmt.Errorf("marshal record: %w", err))
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		out, err := s.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.name: requests},
		})
		if err != nil {
			return wrapError(err)
		}
		if n := len(out.UnprocessedItems[s.name]); n > 0 {
			return &Error{Code: codeUnprocessed, Message: fmt.Sprintf("batch write left %d of %d items unprocessed", n, len(requests))}
		}
	}

	s.log.WithField("count", len(records)).Debug("Stored records")
	return nil
}

// Get returns the record with the given key, or nil when there is none.
func (s *Store) Get(ctx context.Context, ownerID string, at time.Time) (*Record, error) {
	if err := s.verify(); err != nil {
		return nil, err
	}
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.name),
		Key:       key(ownerID, at),
	})
	if err != nil {
		return nil, wrapError(err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var r Record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, newError(codeSerialization, fmt.Errorf("unmarshal record: %w", err))
	}
	return &r, nil
}

// UpdateText sets the text of a record, creating the record when it does not
// exist, and returns the record as stored.
func (s *Store) UpdateText(ctx context.Context, ownerID string, at time.Time, text string) (*Record, error) {
	if err := s.verify(); err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name(attrText), expression.Value(text))).
		Build()
	if err != nil {
		return nil, newError(codeSerialization, fmt.Errorf("build update expression: %w", err))
	}

	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.name),
		Key:                       key(ownerID, at),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, wrapError(err)
	}

	var r Record
	if err := attributevalue.UnmarshalMap(out.Attributes, &r); err != nil {
		return nil, newError(codeSerialization, fmt.Errorf("unmarshal record: %w", err))
	}
	return &r, nil
}

// QueryByOwner returns all records of an owner in timestamp order.
func (s *Store) QueryByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	if err := s.verify(); err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(attrOwner).Equal(expression.Value(ownerID))).
		Build()
	if err != nil {
		return nil, newError(codeSerialization, fmt.Errorf("build key condition: %w", err))
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var records []Record
	paginator := dynamodb.NewQueryPaginator(s.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapError(err)
		}
		var batch []Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, newError(codeSerialization, fmt.Errorf("unmarshal records: %w", err))
		}
		records = append(records, batch...)
	}
	return records, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, ownerID string, at time.Time) error {
	if err := s.verify(); err != nil {
		return err
	}
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.name),
		Key:       key(ownerID, at),
	})
	return wrapError(err)
}

// Drop deletes the table. Later operations return ErrTableMissing; dropping
// twice is a no-op.
func (s *Store) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return nil
	}
	if _, err := s.api.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(s.name)}); err != nil {
		return wrapError(err)
	}
	s.dropped = true
	s.log.Info("Dropped table")
	return nil
}

// ListTables returns the names of all tables of the account.
func ListTables(ctx context.Context, api API) ([]string, error) {
	var names []string
	paginator := dynamodb.NewListTablesPaginator(api, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapError(err)
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}
