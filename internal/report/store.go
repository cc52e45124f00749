package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/neurowell/support-ai-platform/pkg/logging"
)

var storeTracer = otel.Tracer("neurowell.internal.report.store")

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Querier is the pgx surface the metadata log needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps report blobs in S3 under a stable per-user key and appends a
// metadata row per generation. The blob is replaced on regeneration via
// delete-then-put; the metadata log is append-only and never updated.
type Store struct {
	s3Client S3API
	bucket   string
	db       Querier
	logger   *logging.Logger
}

func NewStore(s3Client S3API, bucket string, db Querier, logger *logging.Logger) *Store {
	if s3Client == nil {
		panic("report: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("report: bucket cannot be empty")
	}
	if db == nil {
		panic("report: db cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{s3Client: s3Client, bucket: bucket, db: db, logger: logger}
}

// ObjectKey is the stable per-user blob name. Regeneration overwrites it;
// history lives in the metadata log, not in the object store.
func ObjectKey(userID string) string {
	return userID + "_report.pdf"
}

// Save replaces any previous report blob for the user, uploads the new one,
// and appends a metadata row. It returns the object key. No partial-failure
// recovery is attempted; the caller surfaces the error as-is.
func (s *Store) Save(ctx context.Context, draft *Draft, doc *RenderedDocument) (string, error) {
	ctx, span := storeTracer.Start(ctx, "report.store.save")
	defer span.End()

	key := ObjectKey(draft.UserID)

	// Find-then-delete keeps the bucket at one blob per user even when
	// the backing store permits duplicate puts.
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		if _, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("report: delete stale blob %s: %w", key, err)
		}
		s.logger.Info("replaced stale report blob", "user_id", draft.UserID, "key", key)
	case isNotFound(err):
		// First report for this user.
	default:
		span.RecordError(err)
		return "", fmt.Errorf("report: head %s: %w", key, err)
	}

	if _, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc.Bytes),
		ContentType: aws.String("application/pdf"),
	}); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("report: put %s: %w", key, err)
	}

	const insert = `
		INSERT INTO reports (id, user_id, object_key, local_name, name, age, primary_concern, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.Exec(ctx, insert,
		uuid.New(), draft.UserID, key, doc.LocalName,
		draft.Name, draft.Age, draft.PrimaryConcern, draft.GeneratedAt,
	); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("report: insert metadata: %w", err)
	}

	s.logger.Info("report stored",
		"user_id", draft.UserID,
		"key", key,
		"bytes", len(doc.Bytes),
	)
	return key, nil
}

// isNotFound matches the S3 not-found shapes. String matching is deliberate:
// HeadObject surfaces 404s as a generic API error rather than NoSuchKey.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") ||
		strings.Contains(msg, "NoSuchKey") ||
		strings.Contains(msg, "404")
}
