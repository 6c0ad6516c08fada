package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDynamo struct {
	items    map[string]map[string]types.AttributeValue
	getInput *dynamodb.GetItemInput
	putInput *dynamodb.PutItemInput
	getErr   error
	putErr   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.getInput = in
	if m.getErr != nil {
		return nil, m.getErr
	}
	key := in.Key["chat_id"].(*types.AttributeValueMemberN).Value
	return &dynamodb.GetItemOutput{Item: m.items[key]}, nil
}

func (m *mockDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = in
	if m.putErr != nil {
		return nil, m.putErr
	}
	key := in.Item["chat_id"].(*types.AttributeValueMemberN).Value
	m.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestNewDynamoLedgerValidates(t *testing.T) {
	_, err := NewDynamoLedger(nil, "table")
	assert.ErrorIs(t, err, ErrLedger)
	_, err = NewDynamoLedger(newMockDynamo(), "")
	assert.ErrorIs(t, err, ErrLedger)
}

func TestDynamoLedgerPutThenGet(t *testing.T) {
	mock := newMockDynamo()
	l, err := NewDynamoLedger(mock, "TelegramVerifiedUsers")
	require.NoError(t, err)

	ctx := context.Background()
	_, ok, err := l.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, mock.getInput.ConsistentRead)
	assert.True(t, *mock.getInput.ConsistentRead)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, l.Put(ctx, Record{ChatID: 42, PhoneNumber: "+91 98765 43210", VerifiedAt: at}))
	assert.Equal(t, "TelegramVerifiedUsers", *mock.putInput.TableName)
	assert.Nil(t, mock.putInput.ConditionExpression)

	var stored Record
	require.NoError(t, attributevalue.UnmarshalMap(mock.putInput.Item, &stored))
	assert.Equal(t, int64(42), stored.ChatID)

	rec, ok, err := l.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "+91 98765 43210", rec.PhoneNumber)
	assert.True(t, at.Equal(rec.VerifiedAt))

	verified, err := IsVerified(ctx, l, 42)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestDynamoLedgerWrapsErrors(t *testing.T) {
	mock := newMockDynamo()
	mock.getErr = errors.New("throttled")
	mock.putErr = errors.New("access denied")
	l, err := NewDynamoLedger(mock, "t")
	require.NoError(t, err)

	_, _, err = l.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLedger)
	assert.ErrorContains(t, err, "throttled")

	verified, err := IsVerified(context.Background(), l, 1)
	assert.Error(t, err)
	assert.False(t, verified)

	err = l.Put(context.Background(), Record{ChatID: 1})
	assert.ErrorIs(t, err, ErrLedger)
}

func TestDynamoLedgerReadsLegacyItems(t *testing.T) {
	mock := newMockDynamo()
	mock.items["42"] = map[string]types.AttributeValue{
		"chat_id":      &types.AttributeValueMemberN{Value: "42"},
		"phone_number": &types.AttributeValueMemberS{Value: "+91 98765 43210"},
		"verified_at":  &types.AttributeValueMemberS{Value: "2025-03-01T10:15:30.123456"},
	}
	mock.items["7"] = map[string]types.AttributeValue{
		"chat_id":     &types.AttributeValueMemberN{Value: "7"},
		"verified_at": &types.AttributeValueMemberS{Value: "yesterday"},
	}
	l, err := NewDynamoLedger(mock, "TelegramVerifiedUsers")
	require.NoError(t, err)
	ctx := context.Background()

	rec, ok, err := l.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "+91 98765 43210", rec.PhoneNumber)
	assert.True(t, time.Date(2025, 3, 1, 10, 15, 30, 123456000, time.UTC).Equal(rec.VerifiedAt))

	verified, err := IsVerified(ctx, l, 7)
	require.NoError(t, err)
	assert.True(t, verified)
	rec, _, err = l.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, rec.VerifiedAt.IsZero())
	assert.Equal(t, int64(7), rec.ChatID)
}
