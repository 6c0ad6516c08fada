package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/m3rciful/residentbot/core/logger"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoLedger.
type DynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoLedger stores records in a table whose partition key is chat_id (N).
type DynamoLedger struct {
	client DynamoAPI
	table  string
}

var _ Ledger = (*DynamoLedger)(nil)

// NewDynamoLedger builds a ledger backed by the provided DynamoDB client.
func NewDynamoLedger(client DynamoAPI, table string) (*DynamoLedger, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: dynamodb client is nil", ErrLedger)
	}
	if table == "" {
		return nil, fmt.Errorf("%w: table name is empty", ErrLedger)
	}
	return &DynamoLedger{client: client, table: table}, nil
}

// Get fetches the record for chatID with a strongly consistent read. Any
// stored item counts as verified, even when its fields do not decode.
func (l *DynamoLedger) Get(ctx context.Context, chatID int64) (Record, bool, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.table),
		Key:            chatKey(chatID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logger.Error(ctx, "ledger", "get.failed",
			slog.String("table", l.table),
			slog.String("err", err.Error()),
		)
		return Record{}, false, fmt.Errorf("%w: get chat %d: %v", ErrLedger, chatID, err)
	}
	if len(out.Item) == 0 {
		logger.Debug(ctx, "ledger", "get.miss", slog.String("table", l.table))
		return Record{}, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		logger.Warn(ctx, "ledger", "get.decode.failed",
			slog.String("table", l.table),
			slog.String("err", err.Error()),
		)
	}
	rec := Record{ChatID: chatID, PhoneNumber: item.PhoneNumber}
	if at, ok := parseVerifiedAt(item.VerifiedAt); ok {
		rec.VerifiedAt = at
	} else if item.VerifiedAt != "" {
		logger.Warn(ctx, "ledger", "get.verified_at.unparsed",
			slog.String("table", l.table),
			slog.String("verified_at", logger.SanitizeLimit(item.VerifiedAt, 64)),
		)
	}
	logger.Debug(ctx, "ledger", "get.hit", slog.String("table", l.table))
	return rec, true, nil
}

// Put writes rec unconditionally; concurrent writes for one chat are equivalent.
func (l *DynamoLedger) Put(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal chat %d: %v", ErrLedger, rec.ChatID, err)
	}
	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      item,
	}); err != nil {
		logger.Error(ctx, "ledger", "put.failed",
			slog.String("table", l.table),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: put chat %d: %v", ErrLedger, rec.ChatID, err)
	}
	logger.Info(ctx, "ledger", "put",
		slog.String("table", l.table),
		slog.String("phone", logger.MaskPhone(rec.PhoneNumber)),
	)
	return nil
}

// dynamoItem is the stored shape. verified_at stays a string because older
// rows carry zone-less ISO timestamps.
type dynamoItem struct {
	PhoneNumber string `dynamodbav:"phone_number"`
	VerifiedAt  string `dynamodbav:"verified_at"`
}

var verifiedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseVerifiedAt accepts RFC3339 and zone-less ISO timestamps, the latter read as UTC.
func parseVerifiedAt(s string) (time.Time, bool) {
	for _, layout := range verifiedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func chatKey(chatID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"chat_id": &types.AttributeValueMemberN{Value: strconv.FormatInt(chatID, 10)},
	}
}
