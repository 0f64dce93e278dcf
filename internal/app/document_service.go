package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuchat/internal/docload"
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

// DocumentIndexer is the vector-index side of the document lifecycle.
type DocumentIndexer interface {
	Index(ctx context.Context, path string, fileID uint) error
	Delete(ctx context.Context, fileID uint) error
}

type DocumentService struct {
	docRepo *repository.DocumentRepository
	indexer DocumentIndexer
	tempDir string
	logger  *zap.Logger
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	indexer DocumentIndexer,
	tempDir string,
	logger *zap.Logger,
) *DocumentService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &DocumentService{
		docRepo: docRepo,
		indexer: indexer,
		tempDir: tempDir,
		logger:  logger,
	}
}

type UploadInput struct {
	Filename string
	Content  io.Reader
}

type UploadResult struct {
	FileID   uint
	Filename string
}

// Upload validates, registers, and indexes a document as a two-phase
// operation. Phase 1 inserts the Document row; phase 2 indexes the file.
// If phase 2 fails the row is rolled back, keeping the invariant that a
// registration exists only when its chunks do. The temp file is removed
// on every exit path.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if !docload.IsSupported(in.Filename) {
		return nil, fmt.Errorf("%w: allowed types are %s",
			ErrUnsupportedFileType, strings.Join(docload.SupportedExtensions(), ", "))
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	tempPath := filepath.Join(s.tempDir, fmt.Sprintf("upload_%s%s", uuid.NewString(), ext))
	if err := saveToFile(tempPath, in.Content); err != nil {
		return nil, fmt.Errorf("save uploaded file: %w", err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove temp file failed", zap.String("path", tempPath), zap.Error(err))
		}
	}()

	doc := &model.Document{Filename: in.Filename}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	if err := s.indexer.Index(ctx, tempPath, doc.ID); err != nil {
		// Roll back the registration so the store never retains an id
		// with no indexed content.
		if rbErr := s.docRepo.Delete(doc.ID); rbErr != nil {
			s.logger.Error("rollback document record failed",
				zap.Uint("file_id", doc.ID),
				zap.Error(rbErr),
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	s.logger.Info("document uploaded and indexed",
		zap.Uint("file_id", doc.ID),
		zap.String("filename", in.Filename),
	)
	return &UploadResult{FileID: doc.ID, Filename: in.Filename}, nil
}

// List returns all registered documents, newest upload first.
func (s *DocumentService) List() ([]model.Document, error) {
	return s.docRepo.ListAll()
}

// Delete removes a document from the vector index first and only then
// drops its registration. If the index delete fails the record is left
// untouched; if the record delete fails afterwards the inconsistency is
// surfaced, not healed.
func (s *DocumentService) Delete(ctx context.Context, fileID uint) error {
	if fileID == 0 {
		return fmt.Errorf("%w: file_id is required", ErrInvalidInput)
	}

	if err := s.indexer.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("%w: %v", ErrVectorDeleteFailed, err)
	}
	if err := s.docRepo.Delete(fileID); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordDeleteFailed, err)
	}

	s.logger.Info("document deleted", zap.Uint("file_id", fileID))
	return nil
}

func saveToFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
