package basicpdf

import (
	"fmt"
	"os"
)

type Config struct {
	// Directory where the temporary files are stored while stamping, the files are deleted after each save
	TmpDir string
	// Scale used to rasterize page previews, 1 means one preview pixel per PDF point
	PreviewScale float64
	// Pixels per point used when a signature bitmap is resampled before stamping
	StampResolution float64
	// Draw a QR code with the certificate fingerprint inside the certificate stamp
	CertificateQRCode bool
}

func NewDefaultConfig() *Config {
	cfg := Config{
		TmpDir:            fmt.Sprintf("%s/basicpdf/tmp", os.TempDir()),
		PreviewScale:      1.0,
		StampResolution:   2.0,
		CertificateQRCode: false,
	}

	// 0755 mean owner can read, write and execute
	if err := os.MkdirAll(cfg.TmpDir, 0755); err != nil {
		fmt.Printf("Error creating tmp directory: %v\n", err)
	}

	return &cfg
}

func (c *Config) previewScale() float64 {
	if c == nil || c.PreviewScale <= 0 {
		return 1.0
	}
	return c.PreviewScale
}

func (c *Config) stampResolution() float64 {
	if c == nil || c.StampResolution <= 0 {
		return 1.0
	}
	return c.StampResolution
}

func (c *Config) tmpDir() string {
	if c == nil || c.TmpDir == "" {
		return os.TempDir()
	}
	return c.TmpDir
}
