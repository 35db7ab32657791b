// Package recordstore opens the three record tables on the configured backend.
package recordstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/infrastructure/airtable"
	"github.com/property-listing-api/internal/infrastructure/awsconf"
	"github.com/property-listing-api/internal/infrastructure/dynamo"
	"go.uber.org/zap"
)

// Table is the record-store contract every backend satisfies.
type Table interface {
	Get(ctx context.Context, recordID string) (*domain.Record, error)
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error)
	Create(ctx context.Context, fields map[string]any) (*domain.Record, error)
	Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error)
	Delete(ctx context.Context, recordID string) error
}

type Tables struct {
	Properties  Table
	Subscribers Table
	Inquiries   Table
}

// Open returns the tables for cfg.RecordStore.Backend. The DynamoDB backend
// creates missing tables first; awsCfg is only used there.
func Open(ctx context.Context, cfg *config.Config, awsCfg aws.Config, log *zap.Logger) (*Tables, error) {
	switch cfg.RecordStore.Backend {
	case config.RecordStoreAirtable:
		c := airtable.NewClient(cfg.Airtable, cfg.UpstreamTimeout)
		return &Tables{
			Properties:  c.Table(cfg.RecordStore.PropertiesTable),
			Subscribers: c.Table(cfg.RecordStore.SubscribersTable),
			Inquiries:   c.Table(cfg.RecordStore.InquiriesTable),
		}, nil
	case config.RecordStoreDynamo:
		client := dynamo.NewClient(awsCfg, awsconf.Endpoint(cfg.AWS))
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, log)
		return &Tables{
			Properties:  dynamo.NewRecordTable(client, cfg.DynamoTables.Properties),
			Subscribers: dynamo.NewRecordTable(client, cfg.DynamoTables.Subscribers),
			Inquiries:   dynamo.NewRecordTable(client, cfg.DynamoTables.Inquiries),
		}, nil
	default:
		return nil, fmt.Errorf("unknown record store %q", cfg.RecordStore.Backend)
	}
}
