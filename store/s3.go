package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"marketbrief/config"
	"marketbrief/types"
)

// Archiver writes accepted articles as JSON objects to S3. It is a
// secondary sink: archive failures are logged by the caller and never fail
// a pass.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArchiver creates an archiver from the optional S3 configuration,
// falling back to the standard AWS config/credential chain.
func NewArchiver(ctx context.Context, cfg config.S3Config) (*Archiver, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Archiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Archive uploads one article as a JSON object keyed by its ID.
func (a *Archiver) Archive(ctx context.Context, article types.ClassifiedArticle) error {
	payload, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return fmt.Errorf("encode article %s: %w", article.ID, err)
	}

	key := a.prefix + "articles/" + article.ID + ".json"
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload article %s: %w", article.ID, err)
	}
	return nil
}
