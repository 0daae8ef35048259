// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// version media (covers, screen recordings, logos). Browsers upload
// directly through presigned PUT URLs; the catalog only stores the
// resulting public URLs. Path-style addressing is used so that CEPH,
// MinIO and R2 endpoints work unchanged.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// DefaultUploadExpiry is how long a presigned upload URL stays valid.
const DefaultUploadExpiry = 15 * time.Minute

// Client wraps an S3 client for media operations on a single bucket.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
	now       func() time.Time
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

// Upload is a presigned direct-to-bucket upload slot.
type Upload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignUpload reserves a fresh object key for media of the given kind
// and returns a PUT URL the browser can upload to directly.
func (c *Client) PresignUpload(ctx context.Context, kind MediaKind, contentType string) (*Upload, error) {
	ext, err := kind.Extension(contentType)
	if err != nil {
		return nil, err
	}

	key := c.objectKey(kind, ext)
	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(DefaultUploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}

	return &Upload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: c.FileURL(key),
		ExpiresAt: c.now().Add(DefaultUploadExpiry),
	}, nil
}

// Delete removes an object from the bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL for a key. Uses the configured public
// URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// KeyFromURL extracts the object key from a public file URL. Returns
// ("", false) if the URL does not point into this bucket.
func (c *Client) KeyFromURL(rawURL string) (string, bool) {
	if c.publicURL != "" {
		if key, ok := strings.CutPrefix(rawURL, c.publicURL+"/"); ok {
			return key, true
		}
	}
	if key, ok := strings.CutPrefix(rawURL, c.endpoint+"/"+c.bucket+"/"); ok {
		return key, true
	}
	return "", false
}

// objectKey builds "<kind>/<yyyy>/<mm>/<uuid><ext>".
func (c *Client) objectKey(kind MediaKind, ext string) string {
	now := c.now().UTC()
	return path.Join(string(kind), now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}
