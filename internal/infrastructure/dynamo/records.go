package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/id"
)

type item struct {
	RecordID  string         `dynamodbav:"record_id"`
	CreatedAt string         `dynamodbav:"created_at"`
	Fields    map[string]any `dynamodbav:"fields"`
}

func (it item) record() (domain.Record, error) {
	created, err := time.Parse(createdAtLayout, it.CreatedAt)
	if err != nil {
		return domain.Record{}, fmt.Errorf("record %s: bad created_at %q: %w", it.RecordID, it.CreatedAt, err)
	}
	if it.Fields == nil {
		it.Fields = map[string]any{}
	}
	return domain.Record{ID: it.RecordID, CreatedAt: created, Fields: it.Fields}, nil
}

// RecordTable stores flat field maps in a DynamoDB table keyed by record_id.
type RecordTable struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

func NewRecordTable(client *dynamodb.Client, tableName string) *RecordTable {
	return &RecordTable{client: client, tableName: tableName, now: time.Now}
}

func (r *RecordTable) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrRecordID, recordID),
	})
	if err != nil {
		return nil, domain.Upstream("record store request failed", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("record %s: %w", recordID, domain.ErrNotFound)
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	rec, err := it.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List scans the table, following pages until MaxRecords matches are found
// or the table is exhausted. Results are ordered newest first.
func (r *RecordTable) List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error) {
	after := ""
	if !opts.CreatedAfter.IsZero() {
		after = opts.CreatedAfter.UTC().Format(createdAtLayout)
	}
	fe, err := buildFilterExpr(opts.Equal, after)
	if err != nil {
		return nil, err
	}
	in := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if fe.Expr != "" {
		in.FilterExpression = aws.String(fe.Expr)
		in.ExpressionAttributeNames = fe.Names
		in.ExpressionAttributeValues = fe.Values
	}

	var records []domain.Record
	for {
		out, err := r.client.Scan(ctx, in)
		if err != nil {
			return nil, domain.Upstream("record store request failed", err)
		}
		var items []item
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal records: %w", err)
		}
		for _, it := range items {
			rec, err := it.record()
			if err != nil {
				return nil, err
			}
			records = append(records, project(rec, opts.Fields))
		}
		if len(out.LastEvaluatedKey) == 0 || (opts.MaxRecords > 0 && len(records) >= opts.MaxRecords) {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
		records = records[:opts.MaxRecords]
	}
	return records, nil
}

func (r *RecordTable) Create(ctx context.Context, fields map[string]any) (*domain.Record, error) {
	it := item{
		RecordID:  id.NewRecordID(),
		CreatedAt: r.now().UTC().Format(createdAtLayout),
		Fields:    fields,
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(record_id)"),
	})
	if err != nil {
		return nil, domain.Upstream("record store request failed", err)
	}
	rec, err := it.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecordTable) Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error) {
	ue, err := buildUpdateExpr(attrFields, fields)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrRecordID, recordID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(record_id)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, notFoundOr(recordID, err)
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	rec, err := it.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecordTable) Delete(ctx context.Context, recordID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(attrRecordID, recordID),
		ConditionExpression: aws.String("attribute_exists(record_id)"),
	})
	if err != nil {
		return notFoundOr(recordID, err)
	}
	return nil
}

func notFoundOr(recordID string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("record %s: %w", recordID, domain.ErrNotFound)
	}
	return domain.Upstream("record store request failed", err)
}

// project keeps only the named fields; an empty list keeps everything.
func project(rec domain.Record, fields []string) domain.Record {
	if len(fields) == 0 {
		return rec
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := rec.Fields[f]; ok {
			out[f] = v
		}
	}
	rec.Fields = out
	return rec
}
