package dynamo

import (
	"context"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

func (d *Dynamo) Find(ctx context.Context, contact string, purpose entity.Purpose) (_ *entity.Record, err error) {
	ctx, span := d.startSpan(ctx, "Find")
	defer func() { d.endSpan(span, err) }()

	av, err := d.getItem(ctx, contact, recordSK(purpose))
	if err != nil {
		return nil, err
	}

	var it recordItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, err
	}
	if it.TTL <= d.clock.Now().Unix() {
		return nil, goerror.ErrNotFound
	}

	return it.toEntity()
}

func (d *Dynamo) IncrementAttempts(ctx context.Context, contact string, purpose entity.Purpose, id string) (_ int, err error) {
	ctx, span := d.startSpan(ctx, "IncrementAttempts")
	defer func() { d.endSpan(span, err) }()

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(d.table),
		Key:                                 key(contact, recordSK(purpose)),
		UpdateExpression:                    aws.String("ADD attempts :one"),
		ConditionExpression:                 aws.String("attribute_exists(#id) AND #id = :id"),
		ExpressionAttributeNames:            map[string]string{"#id": "id"},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":id":  &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return 0, goerror.ErrNotFound
			}
			return 0, entity.ErrRecordReplaced
		}
		return 0, err
	}

	var it recordItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return 0, err
	}

	if it.MaxAttempts > 0 && it.Attempts >= it.MaxAttempts {
		if err := d.deleteRecord(ctx, contact, purpose, id); err != nil {
			return 0, err
		}
	}

	return it.Attempts, nil
}

func (d *Dynamo) Delete(ctx context.Context, contact string, purpose entity.Purpose, id string) (err error) {
	ctx, span := d.startSpan(ctx, "Delete")
	defer func() { d.endSpan(span, err) }()

	return d.deleteRecord(ctx, contact, purpose, id)
}

func (d *Dynamo) deleteRecord(ctx context.Context, contact string, purpose entity.Purpose, id string) error {
	in := &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       key(contact, recordSK(purpose)),
	}
	if id != "" {
		in.ConditionExpression = aws.String("#id = :id")
		in.ExpressionAttributeNames = map[string]string{"#id": "id"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		}
	}

	_, err := d.client.DeleteItem(ctx, in)
	if isConditionFailed(err) {
		return nil
	}
	return err
}

func (d *Dynamo) putRecord(rec entity.Record) (*types.Put, error) {
	payload, err := entity.MarshalPayload(rec.Payload)
	if err != nil {
		return nil, err
	}

	item, err := attributevalue.MarshalMap(recordItem{
		Contact:     rec.Contact,
		SK:          recordSK(rec.Purpose),
		ID:          rec.ID,
		Purpose:     rec.Purpose.String(),
		Channel:     rec.Channel.String(),
		CodeHash:    rec.CodeHash,
		Payload:     string(payload),
		IssuedAt:    rec.IssuedAt.UnixMilli(),
		ExpiresAt:   rec.ExpiresAt.UnixMilli(),
		Attempts:    rec.Attempts,
		MaxAttempts: rec.MaxAttempts,
		TTL:         rec.ExpiresAt.Add(d.retention).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &types.Put{TableName: aws.String(d.table), Item: item}, nil
}

func versionValue(v int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}
