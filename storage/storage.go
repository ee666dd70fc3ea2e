// Package storage uploads portal files to S3-compatible object storage.
// Yandex Object Storage is the default target; any endpoint that accepts
// path-style requests works.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/nevindra/pedforum"
)

// Defaults for Yandex Object Storage.
const (
	DefaultEndpoint = "https://storage.yandexcloud.net"
	DefaultRegion   = "ru-central1"
	DefaultBucket   = "pedagogical-forum-files"
)

// keyPrefix is the folder every uploaded file lands in.
const keyPrefix = "articles/"

// Config holds the object storage connection settings.
type Config struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	return c
}

// Putter is the subset of the S3 API used for uploads. *s3.Client
// satisfies it.
type Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object describes a stored file.
type Object struct {
	Key         string
	URL         string
	ContentType string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a structured logger. Uploads are logged at info level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client uploads files to one bucket.
type Client struct {
	api      Putter
	endpoint string
	bucket   string
	logger   *slog.Logger
}

// New creates a Client that talks to cfg.Endpoint with static credentials
// and path-style addressing.
func New(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	api := s3.New(s3.Options{
		Region:                     cfg.Region,
		BaseEndpoint:               aws.String(cfg.Endpoint),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	return NewWithAPI(api, cfg, opts...)
}

// NewWithAPI creates a Client on top of an existing S3 API implementation.
// cfg supplies the endpoint and bucket used to build object URLs.
func NewWithAPI(api Putter, cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		api:      api,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		bucket:   cfg.Bucket,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Upload stores data under a fresh key derived from fileName and returns
// its public URL. A non-2xx response from the storage service is reported
// as *pedforum.ErrHTTP.
func (c *Client) Upload(ctx context.Context, fileName string, data []byte) (Object, error) {
	if fileName == "" {
		return Object{}, errors.New("storage: empty file name")
	}
	start := time.Now()
	obj := Object{
		Key:         ObjectKey(fileName),
		ContentType: ContentType(extension(fileName)),
	}
	obj.URL = c.endpoint + "/" + c.bucket + "/" + obj.Key

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(obj.ContentType),
	})
	if err != nil {
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			err = &pedforum.ErrHTTP{Status: re.HTTPStatusCode(), Body: re.Error()}
		}
		c.logger.Error("storage: upload failed", "key", obj.Key, "error", err, "duration", time.Since(start))
		return Object{}, fmt.Errorf("storage: put %s: %w", obj.Key, err)
	}
	c.logger.Info("storage: uploaded", "key", obj.Key, "bytes", len(data), "content_type", obj.ContentType, "duration", time.Since(start))
	return obj, nil
}

// ObjectKey returns "articles/{8 hex chars}_{fileName}". The prefix is
// taken from a random (v4) UUID so repeated uploads of the same name do not
// collide.
func ObjectKey(fileName string) string {
	return keyPrefix + uuid.New().String()[:8] + "_" + fileName
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"rtf":  "application/rtf",
	"odt":  "application/vnd.oasis.opendocument.text",
}

// ContentType maps a file extension to the MIME type stored with the object.
// Unknown extensions get application/octet-stream.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func extension(fileName string) string {
	if i := strings.LastIndexByte(fileName, '.'); i >= 0 {
		return fileName[i+1:]
	}
	return fileName
}
