package aws

import (
	"context"
	"log/slog"
)

// PayloadArchiver stores raw webhook bodies in an S3 bucket.
type PayloadArchiver struct {
	controller *Controller
	bucket     string
}

// NewPayloadArchiver returns an archiver writing to bucket.
func (a *Controller) NewPayloadArchiver(bucket string) *PayloadArchiver {
	return &PayloadArchiver{controller: a, bucket: bucket}
}

// Archive uploads body under a key derived from webhookID.
func (p *PayloadArchiver) Archive(ctx context.Context, webhookID string, body []byte) error {
	key, err := p.controller.PutS3Object(ctx, p.bucket, webhookID, body)
	if err != nil {
		return err
	}
	p.controller.logger.Debug("archived webhook payload", slog.String("bucket", p.bucket), slog.String("key", key))
	return nil
}
