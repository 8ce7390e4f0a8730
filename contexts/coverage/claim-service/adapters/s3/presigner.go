// Package s3adapter issues presigned evidence uploads against an S3 bucket.
package s3adapter

import (
	"context"
	"strings"
	"time"

	"showingcover/contexts/coverage/claim-service/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// Presigner is the subset of *s3.PresignClient the store needs.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type EvidenceStore struct {
	Presigner Presigner
	Bucket    string
	Prefix    string
	Now       func() time.Time
}

// NewEvidenceStore loads the default AWS config for region. A non-empty
// endpoint switches to path-style addressing for S3-compatible stores.
func NewEvidenceStore(ctx context.Context, region string, endpoint string, bucket string) (*EvidenceStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &EvidenceStore{
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Prefix:    "claims",
	}, nil
}

// NewLocalEvidenceStore signs against an S3-compatible endpoint such as a
// local MinIO with fixed development credentials. Signing needs no network.
func NewLocalEvidenceStore(endpoint string, bucket string) *EvidenceStore {
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	client := s3.New(s3.Options{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "minioadmin", SecretAccessKey: "minioadmin", Source: "local"}, nil
		}),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})
	return &EvidenceStore{
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Prefix:    "claims",
	}
}

func (s *EvidenceStore) PresignUpload(
	ctx context.Context,
	ownerID string,
	filename string,
	contentType string,
	ttl time.Duration,
) (ports.EvidenceUpload, error) {
	key := ObjectKey(s.Prefix, ownerID, ulid.Make().String(), filename)
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"owner-id": ownerID},
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return ports.EvidenceUpload{}, err
	}
	return ports.EvidenceUpload{
		Key:       key,
		URL:       req.URL,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

// ObjectKey builds <prefix>/<owner>/<id>-<filename>, replacing spaces and
// slashes in the filename.
func ObjectKey(prefix string, ownerID string, id string, filename string) string {
	clean := strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(strings.TrimSpace(filename))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "claims"
	}
	return prefix + "/" + ownerID + "/" + id + "-" + clean
}

func (s *EvidenceStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
