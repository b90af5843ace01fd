package storage

import (
	"fmt"

	"eventcertificates/internal/domain"
)

// Config selects and configures a storage provider.
type Config struct {
	Provider  string // "local" or "s3"
	MediaRoot string
	S3        S3Config
}

// New returns the ArtifactStorage named by config.Provider.
func New(config Config) (domain.ArtifactStorage, error) {
	switch config.Provider {
	case "", "local":
		return NewLocalStorage(config.MediaRoot)
	case "s3":
		if config.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		return NewS3Storage(NewS3Client(config.S3), config.S3.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", config.Provider)
	}
}
