package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/neurowell/support-ai-platform/internal/chat"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// EscalationRecord marks that a user's conversation was handed to a human
// counselor. At most one record with Requested=true exists per user; once
// written it is never reset.
type EscalationRecord struct {
	UserID    string `dynamodbav:"userId" json:"userId"`
	Requested bool   `dynamodbav:"requested" json:"requested"`
	Summary   string `dynamodbav:"summary" json:"summary"`
	PDFRef    string `dynamodbav:"pdfRef" json:"pdfRef"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// EscalationStore persists escalation records to DynamoDB. The conditional
// insert makes "escalate exactly once per user" a storage-level guarantee
// rather than a check-then-act sequence.
type EscalationStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ chat.EscalationGuard = (*EscalationStore)(nil)

// NewEscalationStore builds a store backed by the provided DynamoDB client.
func NewEscalationStore(client dynamoAPI, tableName string, logger *logging.Logger) *EscalationStore {
	if client == nil {
		panic("report: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("report: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EscalationStore{client: client, tableName: tableName, logger: logger}
}

// AlreadyRequested reports whether an escalation record exists for the user.
func (s *EscalationStore) AlreadyRequested(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, errors.New("report: userID required")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return false, fmt.Errorf("report: load escalation record: %w", err)
	}
	if len(out.Item) == 0 {
		return false, nil
	}

	var record EscalationRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return false, fmt.Errorf("report: decode escalation record: %w", err)
	}
	return record.Requested, nil
}

// Record inserts the escalation record if and only if none exists yet. A
// concurrent insert that already won surfaces as chat.ErrAlreadyEscalated.
func (s *EscalationStore) Record(ctx context.Context, userID, summary, pdfRef string) error {
	if userID == "" {
		return errors.New("report: userID required")
	}

	record := EscalationRecord{
		UserID:    userID,
		Requested: true,
		Summary:   summary,
		PDFRef:    pdfRef,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("report: marshal escalation record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(userId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return chat.ErrAlreadyEscalated
		}
		return fmt.Errorf("report: persist escalation record: %w", err)
	}

	s.logger.Info("escalation recorded", "user_id", userID, "pdf_ref", pdfRef)
	return nil
}
