package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrContact = "contact"
	attrSK      = "sk"
	attrTTL     = "ttl"

	skRate         = "rate"
	skRecordPrefix = "record#"
)

type client interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Dynamo keeps records and trackers in one table keyed by contact (hash)
// and sk (range): "rate" for the tracker, "record#<purpose>" for records.
// The ttl attribute lets DynamoDB expire items; reads also treat items past
// their ttl as absent since the sweep is lazy.
type Dynamo struct {
	client    client
	table     string
	retention time.Duration
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Config struct {
	Table     string
	Retention time.Duration
}

func New(c *dynamodb.Client, cfg Config, clk clock.Clocker, ins instrument.Instrumentation) *Dynamo {
	return newDynamo(c, cfg, clk, ins)
}

func newDynamo(c client, cfg Config, clk clock.Clocker, ins instrument.Instrumentation) *Dynamo {
	return &Dynamo{client: c, table: cfg.Table, retention: cfg.Retention, clock: clk, ins: ins}
}

func (d *Dynamo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return d.ins.Tracer("verification.outbound.dynamo").Start(ctx, name)
}

func (d *Dynamo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, entity.ErrRateLimited) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func recordSK(purpose entity.Purpose) string {
	return skRecordPrefix + purpose.String()
}

func key(contact, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrContact: &types.AttributeValueMemberS{Value: contact},
		attrSK:      &types.AttributeValueMemberS{Value: sk},
	}
}

func (d *Dynamo) getItem(ctx context.Context, contact, sk string) (map[string]types.AttributeValue, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            key(contact, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, goerror.ErrNotFound
	}
	return out.Item, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
