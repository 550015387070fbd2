package minio

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

const defaultPresignExpiry = time.Hour

// ArtifactStore persists run outputs under "runs/<run_id>/<name>".
type ArtifactStore struct {
	client *Client
	logger logging.Logger
}

// NewArtifactStore constructs an artifact store over client.
func NewArtifactStore(client *Client, log logging.Logger) *ArtifactStore {
	return &ArtifactStore{client: client, logger: log.Named("artifacts")}
}

var _ analysis.ArtifactStore = (*ArtifactStore)(nil)

// Put implements analysis.ArtifactStore.
func (s *ArtifactStore) Put(ctx context.Context, runID common.ID, name, contentType string, data []byte) (string, error) {
	if name == "" {
		return "", errors.New(errors.CodeInvalidParam, "artifact name must not be empty")
	}
	key := ArtifactKey(runID, name)

	_, err := s.client.api.PutObject(ctx, s.client.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to store artifact").WithDetail(key)
	}

	s.logger.Debug("artifact stored",
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return key, nil
}

// Get reads an artifact back.
func (s *ArtifactStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.api.GetObject(ctx, s.client.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to open artifact").WithDetail(key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read artifact").WithDetail(key)
	}
	return data, nil
}

// Delete removes an artifact.
func (s *ArtifactStore) Delete(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to delete artifact").WithDetail(key)
	}
	return nil
}

// PresignedURL returns a temporary download link for an artifact.
func (s *ArtifactStore) PresignedURL(ctx context.Context, key string) (string, error) {
	expiry := s.client.cfg.PresignExpiry
	if expiry == 0 {
		expiry = defaultPresignExpiry
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.cfg.Bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to presign artifact").WithDetail(key)
	}
	return u.String(), nil
}

// ArtifactKey renders the storage key for a run-scoped artifact.
func ArtifactKey(runID common.ID, name string) string {
	return "runs/" + string(runID) + "/" + name
}
