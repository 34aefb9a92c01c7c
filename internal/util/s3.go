package util

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
)

func GetOutputDirectoryPath(day time.Time) string {
	return fmt.Sprintf("outputs/%s", day.Format("2006-01-02"))
}

func createBucketIfNotExists(ctx context.Context, s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		err = s3.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return err
		}
	}

	return nil
}

type FileUploadOptions struct {
	// Add a prefix to the file name
	// For example, if the file name is "data.pdf" and the prefix is "outputs/2025-01-01",
	// the resulting name will be "outputs/2025-01-01/data.pdf"
	DirectoryPath string
	UniquePrefix  bool
	Bucket        string
	S3            *minio.Client
}

// UploadBytesToS3 stores an in-memory file, the content type is guessed from the name.
func UploadBytesToS3(ctx context.Context, data []byte, fileName string, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := createBucketIfNotExists(ctx, fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	objectName := prepareFileName(fileName, fuo)

	info, err := fuo.S3.PutObject(
		ctx,
		fuo.Bucket,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: detectContentType(fileName, data),
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// PresignedDownloadURL returns a temporary GET link that downloads the object as downloadName.
func PresignedDownloadURL(ctx context.Context, s3 *minio.Client, bucket, objectName, downloadName string, expiry time.Duration) (*url.URL, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))

	u, err := s3.PresignedGetObject(ctx, bucket, objectName, expiry, params)
	if err != nil {
		return nil, fmt.Errorf("failed to presign object: %w", err)
	}
	return u, nil
}

// Generates the final file name with uniqueness and prefix
func prepareFileName(originalName string, fuo *FileUploadOptions) string {
	fileName := filepath.Base(originalName)

	if fuo != nil {
		if fuo.UniquePrefix {
			if id, err := GenerateNChar(12); err == nil {
				fileName = fmt.Sprintf("%s_%s", id, fileName)
			} else {
				fileName = AddUniquePrefixToFileName(fileName)
			}
		}

		if fuo.DirectoryPath != "" {
			fileName = filepath.Join(fuo.DirectoryPath, fileName)
		}
	}

	return fileName
}

// Determines the content type from the extension, falling back to sniffing the content
func detectContentType(fileName string, data []byte) string {
	if contentType := mime.TypeByExtension(filepath.Ext(fileName)); contentType != "" {
		return contentType
	}
	return http.DetectContentType(data)
}
