package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct{ mock.Mock }

func (m *mockClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

var (
	start  = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	hourly = entity.RateLimitRule{Threshold: 3, Window: time.Hour}
)

func newTestDynamo(t *testing.T) (*Dynamo, *mockClient) {
	t.Helper()
	mc := &mockClient{}
	t.Cleanup(func() { mc.AssertExpectations(t) })
	d := newDynamo(mc, Config{Table: "otp", Retention: time.Hour}, clock.NewFixed(start), instrument.NewNoop())
	return d, mc
}

func record(id string) entity.Record {
	return entity.Record{
		ID:          id,
		Contact:     "a@b.com",
		Purpose:     entity.PurposeRegistration,
		Channel:     entity.ChannelEmail,
		CodeHash:    "digest",
		Payload:     entity.RegistrationPayload{Email: "a@b.com", FullName: "Alice Doe", EncryptedPassword: "sealed"},
		IssuedAt:    start,
		ExpiresAt:   start.Add(5 * time.Minute),
		MaxAttempts: 3,
	}
}

func marshal(t *testing.T, v any) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

func TestNextRate(t *testing.T) {
	var cur *rateItem
	for i := 1; i <= 3; i++ {
		next, ok := nextRate(cur, "a@b.com", start.Add(time.Duration(i)*time.Minute), hourly)
		require.True(t, ok, "issue %d", i)
		assert.Equal(t, i, next.Count)
		cur = &next
	}
	assert.Equal(t, start.Add(time.Minute+time.Hour).UnixMilli(), cur.LockedUntil)

	_, ok := nextRate(cur, "a@b.com", start.Add(30*time.Minute), hourly)
	assert.False(t, ok, "fourth issue in the window")

	next, ok := nextRate(cur, "a@b.com", start.Add(time.Minute+time.Hour), hourly)
	assert.True(t, ok, "window rolled over")
	assert.Equal(t, 1, next.Count)
	assert.Zero(t, next.LockedUntil)
}

func TestDynamo_Save(t *testing.T) {
	noItem := &dynamodb.GetItemOutput{}

	t.Run("first issue writes tracker and record together", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		mc.On("GetItem", mock.Anything, mock.Anything).Return(noItem, nil).Once()
		mc.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 2 &&
				*in.TransactItems[0].Update.ConditionExpression == "attribute_not_exists(#version)" &&
				in.TransactItems[1].Put != nil
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		require.NoError(t, d.Save(context.Background(), record("r1"), hourly))
	})

	t.Run("locked tracker refuses without writing", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		locked := rateItem{Contact: "a@b.com", SK: skRate, Count: 3, WindowStartedAt: start.Add(-time.Minute).UnixMilli(), LockedUntil: start.Add(59 * time.Minute).UnixMilli(), Version: 3, TTL: start.Add(time.Hour).Unix()}
		mc.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: marshal(t, locked)}, nil).Once()

		err := d.Save(context.Background(), record("r1"), hourly)
		assert.ErrorIs(t, err, entity.ErrRateLimited)
	})

	t.Run("concurrent issue is retried", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		mc.On("GetItem", mock.Anything, mock.Anything).Return(noItem, nil).Twice()
		mc.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{}).Once()
		mc.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		require.NoError(t, d.Save(context.Background(), record("r1"), hourly))
	})
}

func TestDynamo_Find(t *testing.T) {
	rec := record("r1")
	item := recordItem{
		Contact:     rec.Contact,
		SK:          recordSK(rec.Purpose),
		ID:          rec.ID,
		Purpose:     rec.Purpose.String(),
		Channel:     rec.Channel.String(),
		CodeHash:    rec.CodeHash,
		Payload:     `{"purpose":"registration","data":{"email":"a@b.com","full_name":"Alice Doe","encrypted_password":"sealed"}}`,
		IssuedAt:    rec.IssuedAt.UnixMilli(),
		ExpiresAt:   rec.ExpiresAt.UnixMilli(),
		MaxAttempts: 3,
		TTL:         start.Add(time.Hour).Unix(),
	}

	t.Run("live", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		mc.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: marshal(t, item)}, nil).Once()

		got, err := d.Find(context.Background(), "a@b.com", entity.PurposeRegistration)
		require.NoError(t, err)
		assert.Equal(t, &rec, got)
	})

	t.Run("past ttl but not swept", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		stale := item
		stale.TTL = start.Add(-time.Second).Unix()
		mc.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: marshal(t, stale)}, nil).Once()

		_, err := d.Find(context.Background(), "a@b.com", entity.PurposeRegistration)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestDynamo_IncrementAttempts(t *testing.T) {
	t.Run("exhaustion deletes the record", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		mc.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{
			Attributes: marshal(t, recordItem{ID: "r1", Attempts: 3, MaxAttempts: 3}),
		}, nil).Once()
		mc.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
			return *in.ConditionExpression == "#id = :id"
		})).Return(&dynamodb.DeleteItemOutput{}, nil).Once()

		n, err := d.IncrementAttempts(context.Background(), "a@b.com", entity.PurposeRegistration, "r1")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("missing record", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		mc.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		_, err := d.IncrementAttempts(context.Background(), "a@b.com", entity.PurposeRegistration, "r1")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("replaced record", func(t *testing.T) {
		d, mc := newTestDynamo(t)
		mc.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{
			Item: marshal(t, recordItem{ID: "r2"}),
		}).Once()

		_, err := d.IncrementAttempts(context.Background(), "a@b.com", entity.PurposeRegistration, "r1")
		assert.ErrorIs(t, err, entity.ErrRecordReplaced)
	})
}

func TestDynamo_GuardedDeleteIgnoresReplacement(t *testing.T) {
	d, mc := newTestDynamo(t)
	mc.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

	assert.NoError(t, d.Delete(context.Background(), "a@b.com", entity.PurposeRegistration, "r1"))
}
