package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Provider stores uploaded files and returns their public URLs.
type Provider interface {
	UploadFile(ctx context.Context, data io.Reader, filename string, contentType string) (string, error)
	GetFileURL(filename string) (string, error)
}

type S3Config struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	// PublicURL is the base of returned file URLs, e.g. a CDN in front of the bucket.
	PublicURL string `yaml:"public_url"`
	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   S3Config
}

func NewS3Provider(cfg S3Config) (*S3Provider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 storage is not configured")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client),
		config:   cfg,
	}, nil
}

// ObjectKey joins the configured prefix and a file name.
func (p *S3Provider) ObjectKey(filename string) string {
	prefix := strings.Trim(p.config.Prefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

func (p *S3Provider) UploadFile(ctx context.Context, data io.Reader, filename string, contentType string) (string, error) {
	key := p.ObjectKey(filename)

	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.config.Bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return p.GetFileURL(filename)
}

func (p *S3Provider) GetFileURL(filename string) (string, error) {
	key := p.ObjectKey(filename)

	base := strings.TrimRight(p.config.PublicURL, "/")
	if base == "" {
		if p.config.Endpoint == "" {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", p.config.Bucket, p.config.Region)
		} else {
			base = strings.TrimRight(p.config.Endpoint, "/") + "/" + p.config.Bucket
		}
	}

	return base + "/" + key, nil
}
