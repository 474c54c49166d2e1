package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/barklazza/projeto-vendas/internal/export"
	"github.com/barklazza/projeto-vendas/types"
)

// ErrNotArchived is returned when a backup has no stored workbook.
var ErrNotArchived = errors.New("backup not archived")

const maxFileNameLen = 255

// BackupRepository defines persistence operations for backup records.
type BackupRepository interface {
	Create(ctx context.Context, backup types.Backup) (types.Backup, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Backup, error)
	Get(ctx context.Context, id, ownerID int) (types.Backup, error)
	Delete(ctx context.Context, id, ownerID int) error
}

// SaleLister is the slice of SaleRepository a backup needs.
type SaleLister interface {
	ListByOwner(ctx context.Context, ownerID int) ([]types.Sale, error)
}

// Archive stores generated workbooks outside the database.
type Archive interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// BackupInput describes an export the client produced itself.
type BackupInput struct {
	FileName   string
	FileSize   *int64
	SalesCount int
}

// BackupService encapsulates backup use-cases. The archive is optional.
type BackupService struct {
	repo    BackupRepository
	sales   SaleLister
	archive Archive
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

func NewBackupService(repo BackupRepository, sales SaleLister, archive Archive, events EventPublisher, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{
		repo:    repo,
		sales:   sales,
		archive: archive,
		events:  publisherOrNoop(events),
		logger:  logger,
		now:     time.Now,
	}
}

// ArchiveKey is the object key of an archived workbook. File names only
// resolve to the second, so the backup id keeps keys unique.
func ArchiveKey(ownerID, backupID int, fileName string) string {
	return fmt.Sprintf("backups/%d/%d/%s", ownerID, backupID, fileName)
}

// Create records backup metadata only.
func (s *BackupService) Create(ctx context.Context, ownerID int, in BackupInput) (types.Backup, error) {
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		return types.Backup{}, invalid("file_name", "Nome do arquivo é obrigatório")
	}
	if utf8.RuneCountInString(fileName) > maxFileNameLen {
		return types.Backup{}, invalid("file_name", fmt.Sprintf("Nome do arquivo excede %d caracteres", maxFileNameLen))
	}
	if in.FileSize != nil && *in.FileSize < 0 {
		return types.Backup{}, invalid("file_size", "Tamanho do arquivo inválido")
	}
	if in.SalesCount < 0 {
		return types.Backup{}, invalid("sales_count", "Quantidade de vendas inválida")
	}

	backup, err := s.repo.Create(ctx, types.Backup{
		UserID:     ownerID,
		FileName:   fileName,
		FileSize:   in.FileSize,
		SalesCount: in.SalesCount,
	})
	if err != nil {
		return types.Backup{}, err
	}

	s.events.Publish(ctx, EventBackupCreated, ownerID, map[string]any{
		"backup_id":   backup.ID,
		"sales_count": backup.SalesCount,
	})
	return backup, nil
}

func (s *BackupService) List(ctx context.Context, ownerID int) ([]types.Backup, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Delete removes the record and, best-effort, its archived workbook.
func (s *BackupService) Delete(ctx context.Context, ownerID, id int) error {
	var key string
	if s.archive != nil {
		backup, err := s.repo.Get(ctx, id, ownerID)
		if err != nil {
			return err
		}
		key = ArchiveKey(ownerID, backup.ID, backup.FileName)
	}

	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to remove archived backup", "backup_id", id, "error", err)
		}
	}

	s.events.Publish(ctx, EventBackupDeleted, ownerID, map[string]any{"backup_id": id})
	return nil
}

// Export builds the backup workbook of every sale the owner has, records
// it, and then archives it when an archive is configured.
func (s *BackupService) Export(ctx context.Context, ownerID int) (export.File, types.Backup, error) {
	sales, err := s.sales.ListByOwner(ctx, ownerID)
	if err != nil {
		return export.File{}, types.Backup{}, err
	}
	if len(sales) == 0 {
		return export.File{}, types.Backup{}, invalid("", "Nenhuma venda para fazer backup")
	}

	file, err := export.Backup(sales, s.now())
	if err != nil {
		return export.File{}, types.Backup{}, fmt.Errorf("build backup workbook: %w", err)
	}

	size := file.Size()
	backup, err := s.Create(ctx, ownerID, BackupInput{
		FileName:   file.Name,
		FileSize:   &size,
		SalesCount: len(sales),
	})
	if err != nil {
		return export.File{}, types.Backup{}, err
	}

	if s.archive != nil {
		key := ArchiveKey(ownerID, backup.ID, file.Name)
		if err := s.archive.Put(ctx, key, bytes.NewReader(file.Data), size, export.ContentType); err != nil {
			s.logger.WarnContext(ctx, "failed to archive backup", "key", key, "error", err)
		}
	}
	return file, backup, nil
}

// Download opens the archived workbook of an owned backup. The caller
// closes the reader.
func (s *BackupService) Download(ctx context.Context, ownerID, id int) (types.Backup, io.ReadCloser, error) {
	if s.archive == nil {
		return types.Backup{}, nil, ErrNotArchived
	}

	backup, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return types.Backup{}, nil, err
	}

	rc, err := s.archive.Get(ctx, ArchiveKey(ownerID, backup.ID, backup.FileName))
	if err != nil {
		s.logger.WarnContext(ctx, "archived backup unavailable", "backup_id", id, "error", err)
		return types.Backup{}, nil, ErrNotArchived
	}
	return backup, rc, nil
}
