package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/formcraft-backend/internal/platform/envutil"
)

type StorageMode string

const (
	StorageModeGCS      StorageMode = "gcs"
	StorageModeEmulator StorageMode = "gcs_emulator"
)

// UploadsConfig describes the single bucket that holds file-field uploads.
type UploadsConfig struct {
	Bucket        string
	PublicBaseURL string
	Mode          StorageMode
	EmulatorHost  string
}

func UploadsConfigFromEnv() (UploadsConfig, error) {
	cfg := UploadsConfig{
		Bucket:        envutil.String("UPLOADS_GCS_BUCKET", ""),
		PublicBaseURL: strings.TrimRight(envutil.String("UPLOADS_PUBLIC_BASE_URL", ""), "/"),
		EmulatorHost:  strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", ""), "/"),
		Mode:          StorageModeGCS,
	}
	if cfg.EmulatorHost != "" {
		cfg.Mode = StorageModeEmulator
	}
	return cfg, cfg.Validate()
}

// Enabled reports whether uploads are configured at all.
func (c UploadsConfig) Enabled() bool { return c.Bucket != "" }

func (c UploadsConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.PublicBaseURL != "" && !absoluteURL(c.PublicBaseURL) {
		return fmt.Errorf("invalid UPLOADS_PUBLIC_BASE_URL=%q; expected an absolute URL", c.PublicBaseURL)
	}
	if c.Mode == StorageModeEmulator && !absoluteURL(c.EmulatorHost) {
		return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", c.EmulatorHost)
	}
	return nil
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
