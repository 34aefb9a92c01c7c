package filestorage

import (
	"context"
	"time"

	"github.com/SeakMengs/BasicPDF/internal/config"
	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// StoredOutput points to a finished document kept in object storage.
type StoredOutput struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type OutputStore interface {
	Put(ctx context.Context, name string, data []byte) (*StoredOutput, error)
}

type MinioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewMinioStore(client *minio.Client, cfg *config.MinioConfig, logger *zap.SugaredLogger) *MinioStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &MinioStore{
		client: client,
		bucket: cfg.BUCKET,
		expiry: cfg.PresignExpiry,
		logger: logger,
		now:    time.Now,
	}
}

// Put uploads data under a dated, unique key and returns a presigned download link.
func (s *MinioStore) Put(ctx context.Context, name string, data []byte) (*StoredOutput, error) {
	info, err := util.UploadBytesToS3(ctx, data, name, &util.FileUploadOptions{
		DirectoryPath: util.GetOutputDirectoryPath(s.now()),
		UniquePrefix:  true,
		Bucket:        s.bucket,
		S3:            s.client,
	})
	if err != nil {
		return nil, err
	}

	u, err := util.PresignedDownloadURL(ctx, s.client, s.bucket, info.Key, name, s.expiry)
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("Stored output %s as %s", name, info.Key)
	return &StoredOutput{
		Name: name,
		Key:  info.Key,
		URL:  u.String(),
		Size: info.Size,
	}, nil
}
