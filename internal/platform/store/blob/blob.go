// Package blob provides a MinIO-compatible object store client
package blob

import (
	"context"
	"errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config configures object store connectivity
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
	AppName   string
}

// Client is a thin wrapper around the minio SDK client
type Client struct {
	MC     *minio.Client
	Region string
}

// Open creates a new Client with static credentials
// the SDK does no I/O here; connectivity surfaces on first call
func Open(_ context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("blob: empty endpoint")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	if cfg.AppName != "" {
		mc.SetAppInfo(cfg.AppName, "")
	}
	return &Client{MC: mc, Region: cfg.Region}, nil
}
