// SPDX-License-Identifier: MIT

// Package storage optionally uploads the final graph document to
// S3-compatible object storage.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewClient sets up a client for accessing S3-compatible object storage.
// If keypath is empty, credentials come from S3_ENDPOINT/S3_KEY/S3_SECRET
// environment variables instead.
func NewClient(keypath string) (*minio.Client, error) {
	var config struct{ Endpoint, Key, Secret string }

	if keypath == "" {
		config.Endpoint = os.Getenv("S3_ENDPOINT")
		config.Key = os.Getenv("S3_KEY")
		config.Secret = os.Getenv("S3_SECRET")
	} else {
		data, err := os.ReadFile(keypath)
		if err != nil {
			return nil, fmt.Errorf("storage: reading %s: %w", keypath, err)
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("storage: parsing %s: %w", keypath, err)
		}
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Key, config.Secret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: creating client: %w", err)
	}
	client.SetAppInfo("GenreGraphBuilder", "0.1")
	return client, nil
}

// UploadGraph uploads the final graph document at path to bucket, named
// by dumpDate, skipping the upload if an object with that name already
// exists — idempotent across re-runs of the same dump date.
func UploadGraph(ctx context.Context, client *minio.Client, bucket, dumpDate, path string, logger *log.Logger) error {
	dest := fmt.Sprintf("public/genregraph-%s.json", dumpDate)
	return uploadFile(ctx, client, bucket, dest, path, "application/json", logger)
}

func uploadFile(ctx context.Context, client *minio.Client, bucket, dest, src, contentType string, logger *log.Logger) error {
	if _, err := client.StatObject(ctx, bucket, dest, minio.StatObjectOptions{}); err == nil {
		logger.Printf("storage: already present: %s/%s", bucket, dest)
		return nil
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := client.FPutObject(ctx, bucket, dest, src, opts); err != nil {
		return fmt.Errorf("storage: uploading %s/%s: %w", bucket, dest, err)
	}
	logger.Printf("storage: uploaded %s/%s", bucket, dest)
	return nil
}
