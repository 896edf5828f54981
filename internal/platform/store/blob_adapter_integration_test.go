//go:build integration_minio
// +build integration_minio

package store

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	perr "flatlake/internal/platform/errors"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMinio launches a disposable MinIO and returns its endpoint + stop func
func startMinio(t *testing.T) (endpoint string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "datalake",
			"MINIO_ROOT_PASSWORD": "datalake8",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp"),
			wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start minio container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "9000/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	return fmt.Sprintf("%s:%s", host, mp.Port()), func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
}

func TestBlobAdapter_RoundTrip(t *testing.T) {
	endpoint, stop := startMinio(t)
	defer stop()

	ctx := context.Background()
	st, err := Open(ctx, Config{
		AppName: "flatlake-test",
		Blob: BlobConfig{
			Enabled:   true,
			Endpoint:  endpoint,
			AccessKey: "datalake",
			SecretKey: "datalake8",
			Secure:    false,
		},
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = st.Close(ctx) }()

	const bucket = "raw"
	if err := st.Blob.EnsureBucket(ctx, bucket); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	// second call must be a clean no-op
	if err := st.Blob.EnsureBucket(ctx, bucket); err != nil {
		t.Fatalf("EnsureBucket (existing): %v", err)
	}

	prefix := "year=2025/month=12/day=19/hour=14/"
	payload := []byte(`{"a":{"b":1}}`)
	for _, key := range []string{prefix + "one.json", prefix + "two.json"} {
		if err := st.Blob.Put(ctx, bucket, key, payload, "application/json"); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	keys, err := st.Blob.List(ctx, bucket, prefix)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("List returned %d keys, want 2: %v", len(keys), keys)
	}

	got, err := st.Blob.Get(ctx, bucket, keys[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Get returned %q, want %q", got, payload)
	}

	// missing key maps to the coded not found error
	_, err = st.Blob.Get(ctx, bucket, prefix+"missing.json")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("Get(missing) code = %v, want not_found (err=%v)", perr.CodeOf(err), err)
	}
}
