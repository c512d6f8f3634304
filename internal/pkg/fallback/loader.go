package fallback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

var ErrNotConfigured = errors.New("no fallback paywall source configured")

// Document is a loaded fallback paywall set. Raw is passed to the SDK
// untouched; Paywalls is its validated decoding.
type Document struct {
	Raw      string
	Paywalls *adapty.FallbackPaywalls
	Source   string
}

// ObjectGetter is the slice of the S3 API the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client for the fallback bucket
func NewS3Client(ctx context.Context, cfg *Config) (*s3.Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	}), nil
}

// Load reads and validates the fallback document from the configured
// source. S3 wins when both sources are set.
func Load(ctx context.Context, cfg *Config) (*Document, error) {
	switch {
	case cfg.S3Enabled:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return LoadFromS3(ctx, client, cfg.Bucket, cfg.Key)
	case cfg.Path != "":
		return LoadFromFile(cfg.Path)
	default:
		return nil, ErrNotConfigured
	}
}

func LoadFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback paywalls: %w", err)
	}
	return parse(data, path)
}

func LoadFromS3(ctx context.Context, client ObjectGetter, bucket, key string) (*Document, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch fallback paywalls s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read fallback paywalls s3://%s/%s: %w", bucket, key, err)
	}
	return parse(data, fmt.Sprintf("s3://%s/%s", bucket, key))
}

func parse(data []byte, source string) (*Document, error) {
	var doc adapty.FallbackPaywalls
	if err := adapty.NewCodec().Decode(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid fallback paywalls in %s: %w", source, err)
	}
	log.Infof("[Fallback] Loaded %d paywalls from %s", len(doc.Paywalls), source)
	return &Document{Raw: string(data), Paywalls: &doc, Source: source}, nil
}
