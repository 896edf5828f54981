package store

import (
	"bytes"
	"context"
	"io"

	perr "flatlake/internal/platform/errors"
	"flatlake/internal/platform/logger"
	"flatlake/internal/platform/store/blob"

	"github.com/minio/minio-go/v7"
)

// blobAdapter wraps blob.Client and implements the Blob seam
// store errors are mapped onto platform error codes so callers can
// classify without importing the SDK
type blobAdapter struct {
	c   *blob.Client
	log logger.Logger
}

func newBlobAdapter(c *blob.Client, log logger.Logger) *blobAdapter {
	return &blobAdapter{c: c, log: log.With().Str("component", "blob").Logger()}
}

func (a *blobAdapter) Ping(ctx context.Context) error {
	_, err := a.c.MC.ListBuckets(ctx)
	return mapBlobErr(err)
}

// Close is a no-op; the minio client holds no long-lived resources
func (a *blobAdapter) Close() error { return nil }

func (a *blobAdapter) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := a.c.MC.BucketExists(ctx, bucket)
	if err != nil {
		return mapBlobErr(err)
	}
	if exists {
		return nil
	}
	err = a.c.MC.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: a.c.Region})
	if err != nil {
		// lost a creation race; the bucket is there, which is all we wanted
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return mapBlobErr(err)
	}
	a.log.Debug().Str("bucket", bucket).Msg("bucket created")
	return nil
}

func (a *blobAdapter) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range a.c.MC.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, mapBlobErr(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (a *blobAdapter) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := a.c.MC.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapBlobErr(err)
	}
	defer func() { _ = obj.Close() }()

	// GetObject defers most failures to the first Read
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapBlobErr(err)
	}
	return data, nil
}

func (a *blobAdapter) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := a.c.MC.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return mapBlobErr(err)
}

// mapBlobErr converts SDK errors into coded platform errors
func mapBlobErr(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return perr.Wrap(err, perr.ErrorCodeNotFound, "object store")
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return perr.Wrap(err, perr.ErrorCodePermissionDenied, "object store")
	default:
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "object store")
	}
}
