package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/remote"
)

// S3Mirror pushes the snapshot file to an S3-compatible bucket. It is the
// alternative to the GitHub client when REMOTE_PROVIDER=s3.
type S3Mirror struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Mirror builds the client from static credentials. A custom endpoint
// (MinIO, LocalStack) is used as-is.
func NewS3Mirror(cfg config.S3Config) (*S3Mirror, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("AWS_BUCKET_NAME is required for the s3 provider")
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	key := strings.TrimPrefix(cfg.Key, "/")
	if key == "" {
		key = "data/db_backup.json"
	}
	return &S3Mirror{client: client, bucket: cfg.BucketName, key: key}, nil
}

// Push uploads the file at path over the current object. The write is
// conditional on the ETag seen by HeadObject, or on the key being absent, so
// an object changed in between is reported as a conflict and left alone.
func (m *S3Mirror) Push(ctx context.Context, path string) (*remote.SyncResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &remote.Error{Kind: remote.KindPrecondition, Step: "precondition", Err: remote.ErrSnapshotMissing}
	}
	if err != nil {
		return nil, &remote.Error{Kind: remote.KindPrecondition, Step: "precondition", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &remote.Error{Kind: remote.KindPrecondition, Step: "precondition", Err: remote.ErrSnapshotEmpty}
	}

	input := &s3.PutObjectInput{
		Body:        bytes.NewReader(data),
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key),
		ContentType: aws.String("application/json"),
	}

	created := false
	head, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key),
	})
	switch {
	case err == nil:
		input.IfMatch = head.ETag
	case isNotFound(err):
		created = true
		input.IfNoneMatch = aws.String("*")
	default:
		return nil, wrapError("lookup", err)
	}

	out, err := m.client.PutObject(ctx, input)
	if err != nil {
		return nil, wrapError("commit", err)
	}

	result := &remote.SyncResult{
		Provider:   config.RemoteS3,
		Target:     m.bucket,
		Path:       m.key,
		ContentSHA: strings.Trim(aws.ToString(out.ETag), `"`),
		CommitSHA:  aws.ToString(out.VersionId),
		Created:    created,
	}
	logging.With("storage").Info().
		Str("bucket", m.bucket).
		Str("key", m.key).
		Str("etag", result.ContentSHA).
		Bool("created", created).
		Msg("snapshot mirrored")
	return result, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	return statusOf(err) == http.StatusNotFound
}

func statusOf(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func wrapError(step string, err error) *remote.Error {
	status := statusOf(err)
	kind := remote.KindTransport
	switch {
	case status == http.StatusPreconditionFailed || status == http.StatusConflict:
		kind = remote.KindConflict
	case status == http.StatusForbidden:
		kind = remote.KindForbidden
	case status == http.StatusUnauthorized:
		kind = remote.KindUnauthorized
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		kind = remote.KindRateLimited
	case status != 0:
		kind = remote.KindHTTP
	}
	return &remote.Error{Kind: kind, Step: step, Status: status, Err: fmt.Errorf("s3: %w", err)}
}
