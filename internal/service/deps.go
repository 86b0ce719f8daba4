package service

import (
	"context"

	"ribscan/internal/banking"
	"ribscan/internal/models"

	"github.com/google/uuid"
)

// Collaborator contracts the pipeline services consume. The concrete
// implementations live in TextractService, LLMService, FileStore and the
// repository package; tests substitute stubs.

type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, contentType string) string
}

type FieldExtractor interface {
	ExtractSlipFields(ctx context.Context, rawText string, banks banking.Directory) *SlipExtraction
	ExtractCardFields(ctx context.Context, rawText string) *CardExtraction
}

type BlobStore interface {
	Save(name string, content []byte) error
	Read(name string) ([]byte, error)
	Exists(name string) bool
	Delete(name string)
}

type PeriodStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Period, error)
}

type DirectorySource interface {
	Directory(ctx context.Context) (banking.Directory, error)
}
