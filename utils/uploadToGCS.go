package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient builds a Cloud Storage client. ADC (the Cloud Run service
// account or GOOGLE_APPLICATION_CREDENTIALS) is the normal path;
// GCS_CREDENTIALS_JSON overrides it for local runs.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func gcsBucketName() (string, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	return bucket, nil
}

// UploadBytesToGCS writes data to the configured bucket under objectName.
// Used for avatar images, thumbnails and exported report files.
func UploadBytesToGCS(ctx context.Context, objectName string, data []byte, contentType string) error {
	bucket, err := gcsBucketName()
	if err != nil {
		return err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		return fmt.Errorf("upload %q: %v", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close writer for %q: %v", objectName, err)
	}
	return nil
}

// DeleteObjectFromGCS removes an object; a missing object is not an error,
// so callers can clean up replaced avatars without checking existence first.
func DeleteObjectFromGCS(ctx context.Context, objectName string) error {
	bucket, err := gcsBucketName()
	if err != nil {
		return err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Bucket(bucket).Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return err
	}
	return nil
}
