package config

import (
	"strings"
	"time"

	"github.com/SeakMengs/BasicPDF/internal/env"
)

type Config struct {
	Port        string
	ENV         string
	MaxUploadMB int
	RateLimiter RateLimiterConfig
	Auth        AuthConfig
	PDF         PDFConfig
	Minio       MinioConfig
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type AuthConfig struct {
	SESSION_SECRET string
	// Sessions idle for longer are dropped and their tokens expire
	SessionTTL time.Duration
}

type PDFConfig struct {
	TmpDir            string
	PreviewScale      float64
	StampResolution   float64
	CertificateQRCode bool
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	BUCKET     string
	USE_SSL    bool
	// Lifetime of the presigned download links
	PresignExpiry time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

// Enabled reports whether outputs should be stored in MinIO instead of streamed back.
func (m MinioConfig) Enabled() bool {
	return m.ENDPOINT != ""
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func GetConfig() Config {
	return Config{
		Port:        env.GetString("PORT", "8080"),
		ENV:         env.GetString("ENV", "development"),
		MaxUploadMB: env.GetInt("MAX_UPLOAD_MB", 50),
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            env.GetDuration("RATE_LIMIT_TIME_FRAME", time.Minute),
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		Auth: AuthConfig{
			SESSION_SECRET: env.GetString("SESSION_SECRET", ""),
			SessionTTL:     env.GetDuration("SESSION_TTL", 30*time.Minute),
		},
		PDF: PDFConfig{
			TmpDir:            env.GetString("PDF_TMP_DIR", ""),
			PreviewScale:      env.GetFloat("PREVIEW_SCALE", 1.0),
			StampResolution:   env.GetFloat("STAMP_RESOLUTION", 2.0),
			CertificateQRCode: env.GetBool("CERT_STAMP_QR", false),
		},
		Minio: MinioConfig{
			ENDPOINT:      env.GetString("MINIO_ENDPOINT", ""),
			ACCESS_KEY:    env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY:    env.GetString("MINIO_SECRET_KEY", ""),
			BUCKET:        env.GetString("MINIO_BUCKET", "basicpdf"),
			USE_SSL:       env.GetBool("MINIO_USE_SSL", false),
			PresignExpiry: env.GetDuration("MINIO_PRESIGN_EXPIRY", 15*time.Minute),
		},
	}
}
