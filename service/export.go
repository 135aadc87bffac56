package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"voicememo/dto"
	"voicememo/entities"
)

var ErrExportNotConfigured = errors.New("object storage not configured")

// ExportService uploads a record's audio file together with a JSON document
// of its artifacts to an S3-compatible bucket, so a memo can be shared
// outside the device.
type ExportService interface {
	Export(ctx context.Context, rec entities.Record) (dto.ExportResult, error)
}

type exportService struct {
	client *minio.Client
	bucket string
}

func NewExportService(client *minio.Client, bucket string) ExportService {
	return &exportService{
		client: client,
		bucket: bucket,
	}
}

func (s *exportService) Export(ctx context.Context, rec entities.Record) (dto.ExportResult, error) {
	if s.client == nil {
		return dto.ExportResult{}, ErrExportNotConfigured
	}

	audioObject := fmt.Sprintf("records/%s/%s", rec.ID, filepath.Base(rec.URI))
	zerolog.Ctx(ctx).Info().Str("record_id", rec.ID).Str("object", audioObject).Msg("uploading audio file")
	_, err := s.client.FPutObject(ctx, s.bucket, audioObject, rec.URI, minio.PutObjectOptions{})
	if err != nil {
		return dto.ExportResult{}, err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return dto.ExportResult{}, err
	}

	metadataObject := fmt.Sprintf("records/%s/record.json", rec.ID)
	_, err = s.client.PutObject(ctx, s.bucket, metadataObject, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return dto.ExportResult{}, err
	}

	return dto.ExportResult{
		AudioObject:    audioObject,
		MetadataObject: metadataObject,
	}, nil
}
