package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"adexport/normalize"
)

// S3Sink buffers the whole run as compact JSONL behind a gzip stream and
// uploads it as a single object on Close.
type S3Sink struct {
	client  *s3.Client
	bucket  string
	key     string
	timeout time.Duration
	retries int

	buf bytes.Buffer
	gz  *gzip.Writer
	enc *json.Encoder
}

func NewS3Sink(ctx context.Context, region, bucket, key string, timeout time.Duration, retries int) (*S3Sink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	// retries are handled here with one budget, not by the SDK as well
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})

	s := &S3Sink{
		client:  client,
		bucket:  bucket,
		key:     key,
		timeout: timeout,
		retries: retries,
	}
	s.gz = gzip.NewWriter(&s.buf)
	s.enc = json.NewEncoder(s.gz)
	return s, nil
}

func (s *S3Sink) Write(record *normalize.Record) error {
	if err := s.enc.Encode(record.Flat()); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// Close finishes the gzip stream and uploads the object, retrying with
// exponential backoff capped at two seconds.
func (s *S3Sink) Close() error {
	if err := s.gz.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}
	body := s.buf.Bytes()

	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt < s.retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(s.key),
			Body:          bytes.NewReader(body),
			ContentLength: aws.Int64(int64(len(body))),
		})
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		time.Sleep(backoff)
		if backoff *= 2; backoff > 2*time.Second {
			backoff = 2 * time.Second
		}
	}
	return fmt.Errorf("upload to s3://%s/%s: %w", s.bucket, s.key, lastErr)
}
