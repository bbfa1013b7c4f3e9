package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

const maxSaveConflicts = 5

// Save reads the tracker, computes its next state and writes it together
// with the record in one transaction conditioned on the tracker version. A
// concurrent issuance for the same contact cancels the transaction and the
// whole step is retried.
func (d *Dynamo) Save(ctx context.Context, rec entity.Record, rule entity.RateLimitRule) (err error) {
	ctx, span := d.startSpan(ctx, "Save")
	defer func() { d.endSpan(span, err) }()

	put, err := d.putRecord(rec)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(maxSaveConflicts, retry.WithJitter(10*time.Millisecond, retry.NewExponential(10*time.Millisecond)))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		cur, err := d.readRate(ctx, rec.Contact)
		if err != nil {
			return err
		}

		next, admitted := nextRate(cur, rec.Contact, rec.IssuedAt, rule)
		if !admitted {
			if cur != nil && cur.LockedUntil == next.LockedUntil {
				return entity.ErrRateLimited
			}
			if err := d.writeRate(ctx, cur, next); err != nil && !isConditionFailed(err) {
				return err
			}
			return entity.ErrRateLimited
		}

		update, err := d.rateUpdate(cur, next)
		if err != nil {
			return err
		}

		_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{{Update: update}, {Put: put}},
		})
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (d *Dynamo) readRate(ctx context.Context, contact string) (*rateItem, error) {
	av, err := d.getItem(ctx, contact, skRate)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var it rateItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// rateUpdate builds a write of next guarded by the version read in cur.
func (d *Dynamo) rateUpdate(cur *rateItem, next rateItem) (*types.Update, error) {
	var prev int64
	cond := "attribute_not_exists(#version)"
	if cur != nil {
		prev = cur.Version
		cond = "#version = :prev"
	}
	next.Version = prev + 1

	values, err := attributevalue.MarshalMap(map[string]any{
		":count":   next.Count,
		":started": next.WindowStartedAt,
		":locked":  next.LockedUntil,
		":version": next.Version,
		":ttl":     next.TTL,
	})
	if err != nil {
		return nil, err
	}
	if cur != nil {
		values[":prev"] = versionValue(prev)
	}

	return &types.Update{
		TableName:           aws.String(d.table),
		Key:                 key(next.Contact, skRate),
		UpdateExpression:    aws.String("SET #count = :count, window_started_at = :started, locked_until = :locked, #version = :version, #ttl = :ttl"),
		ConditionExpression: aws.String(cond),
		ExpressionAttributeNames: map[string]string{
			"#count":   "count",
			"#version": "version",
			"#ttl":     attrTTL,
		},
		ExpressionAttributeValues: values,
	}, nil
}

func (d *Dynamo) writeRate(ctx context.Context, cur *rateItem, next rateItem) error {
	update, err := d.rateUpdate(cur, next)
	if err != nil {
		return err
	}

	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 update.TableName,
		Key:                       update.Key,
		UpdateExpression:          update.UpdateExpression,
		ConditionExpression:       update.ConditionExpression,
		ExpressionAttributeNames:  update.ExpressionAttributeNames,
		ExpressionAttributeValues: update.ExpressionAttributeValues,
	})
	return err
}

func (d *Dynamo) GetRateLimit(ctx context.Context, contact string) (_ *entity.RateLimit, err error) {
	ctx, span := d.startSpan(ctx, "GetRateLimit")
	defer func() { d.endSpan(span, err) }()

	it, err := d.readRate(ctx, contact)
	if err != nil {
		return nil, err
	}
	if it == nil || it.TTL <= d.clock.Now().Unix() {
		return nil, goerror.ErrNotFound
	}
	return it.toEntity(), nil
}

func (d *Dynamo) ClearRateLimit(ctx context.Context, contact string) (err error) {
	ctx, span := d.startSpan(ctx, "ClearRateLimit")
	defer func() { d.endSpan(span, err) }()

	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       key(contact, skRate),
	})
	return err
}
