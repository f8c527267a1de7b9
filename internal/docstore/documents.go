package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tonimelisma/sharepoint-go/internal/extract"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/libpath"
	"github.com/tonimelisma/sharepoint-go/internal/persist"
)

// ListDocuments returns the files directly inside folder.
func (s *Service) ListDocuments(ctx context.Context, folder string) ([]graph.FileEntry, error) {
	p, err := s.resolve(folder)
	if err != nil {
		return nil, err
	}

	s.logger.Info("listing documents", slog.String("path", p))

	files, err := s.listFiles(ctx, s.settings().Retry, p)
	if err != nil {
		return nil, opError(OpListDocuments, p, err)
	}

	return nonNil(files), nil
}

// GetDocumentContent downloads a file and decodes it for reading.
// Extracted content is cached by path and eTag, so an unchanged file is
// downloaded once.
func (s *Service) GetDocumentContent(ctx context.Context, folder, name string) (extract.Result, error) {
	req := fileRequest{Folder: folder, FileName: name}
	if err := req.validate(); err != nil {
		return extract.Result{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return extract.Result{}, err
	}

	entry, ok, err := s.fileExists(ctx, OpGetContent, p)
	if err != nil {
		return extract.Result{}, err
	}

	if !ok {
		return extract.Result{}, opError(OpGetContent, p, fmt.Errorf("file '%s' not found in '%s': %w", name, folder, ErrNotFound))
	}

	settings := s.settings()
	if settings.MaxInlineBytes > 0 && entry.Size > settings.MaxInlineBytes {
		return extract.Result{}, opError(OpGetContent, p,
			fmt.Errorf("%w: %d bytes, limit is %d", graph.ErrTooLarge, entry.Size, settings.MaxInlineBytes))
	}

	key := cacheKey(p, entry.ETag)
	if s.cache != nil && key != "" {
		if cached, hit := s.cache.Get(key); hit {
			s.logger.Debug("content cache hit", slog.String("path", p))
			return cached, nil
		}
	}

	s.logger.Info("reading document", slog.String("path", p), slog.Int64("size", entry.Size))

	data, err := s.getBytes(ctx, settings.Retry, p)
	if err != nil {
		return extract.Result{}, opError(OpGetContent, p, err)
	}

	result := s.extractor.Extract(name, data)

	if s.cache != nil && key != "" {
		s.cache.Add(key, result)
	}

	return result, nil
}

func cacheKey(p, etag string) string {
	if etag == "" {
		return ""
	}

	return p + "\x00" + etag
}

// UploadDocument creates or replaces name in folder. Content is UTF-8
// text, or standard base64 when isBase64 is set.
func (s *Service) UploadDocument(ctx context.Context, folder, name, content string, isBase64 bool) (Result, error) {
	req := uploadRequest{Folder: folder, FileName: name, Content: content, IsBase64: isBase64}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return Result{}, err
	}

	return s.upload(ctx, OpUpload, p, req.payload(), "uploaded")
}

// UploadDocumentFromPath uploads a local file into folder, under newName
// when given, otherwise under the local file's base name.
func (s *Service) UploadDocumentFromPath(ctx context.Context, folder, localPath, newName string) (Result, error) {
	req := uploadPathRequest{Folder: folder, LocalPath: localPath, NewFileName: newName}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	abs, err := libpath.CheckLocalSource(localPath)
	if err != nil {
		return Result{}, invalid(err)
	}

	name := newName
	if name == "" {
		name = filepath.Base(localPath)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Result{}, opError(OpUploadFromPath, abs, err)
	}

	if !info.Mode().IsRegular() {
		return Result{}, invalid(fmt.Errorf("%s is not a regular file", abs))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Result{}, opError(OpUploadFromPath, abs, err)
	}

	s.logger.Info("uploading from path", slog.String("local", abs), slog.String("path", p))

	return s.upload(ctx, OpUploadFromPath, p, data, "uploaded")
}

// UpdateDocument overwrites an existing file. A missing file is an
// unsuccessful Result.
func (s *Service) UpdateDocument(ctx context.Context, folder, name, content string, isBase64 bool) (Result, error) {
	req := uploadRequest{Folder: folder, FileName: name, Content: content, IsBase64: isBase64}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return Result{}, err
	}

	_, ok, err := s.fileExists(ctx, OpUpdate, p)
	if err != nil {
		return Result{}, err
	}

	if !ok {
		return Result{Message: missingFile(name, folder)}, nil
	}

	return s.upload(ctx, OpUpdate, p, req.payload(), "updated")
}

func (s *Service) upload(ctx context.Context, op, p string, data []byte, verb string) (Result, error) {
	s.logger.Info("uploading document", slog.String("path", p), slog.Int("size", len(data)))

	file, err := s.putBytes(ctx, s.settings().Retry, p, data)
	if err != nil {
		s.record(ctx, op, p, false, err.Error())
		return Result{}, opError(op, p, err)
	}

	msg := fmt.Sprintf("File '%s' %s successfully", file.Name, verb)
	s.record(ctx, op, p, true, msg)

	return Result{Success: true, Message: msg, File: &file}, nil
}

// DeleteDocument deletes name from folder. A missing file is an
// unsuccessful Result.
func (s *Service) DeleteDocument(ctx context.Context, folder, name string) (Result, error) {
	req := fileRequest{Folder: folder, FileName: name}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return Result{}, err
	}

	_, ok, err := s.fileExists(ctx, OpDelete, p)
	if err != nil {
		return Result{}, err
	}

	if !ok {
		return Result{Message: missingFile(name, folder)}, nil
	}

	s.logger.Info("deleting document", slog.String("path", p))

	if err := s.deleteObject(ctx, s.settings().Retry, p); err != nil {
		s.record(ctx, OpDelete, p, false, err.Error())
		return Result{}, opError(OpDelete, p, err)
	}

	msg := fmt.Sprintf("File '%s' deleted successfully", name)
	s.record(ctx, OpDelete, p, true, msg)

	return Result{Success: true, Message: msg}, nil
}

// DownloadDocument saves a file to localPath, or to the fallback
// directory when localPath cannot be written.
func (s *Service) DownloadDocument(ctx context.Context, folder, name, localPath string) (DownloadResult, error) {
	req := downloadRequest{Folder: folder, FileName: name, LocalPath: localPath}
	if err := req.validate(); err != nil {
		return DownloadResult{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return DownloadResult{}, err
	}

	_, ok, err := s.fileExists(ctx, OpDownload, p)
	if err != nil {
		return DownloadResult{}, err
	}

	if !ok {
		return DownloadResult{Error: fmt.Sprintf("File '%s' not found in '%s'", name, folder)}, nil
	}

	s.logger.Info("downloading document", slog.String("path", p), slog.String("local", localPath))

	data, err := s.getBytes(ctx, s.settings().Retry, p)
	if err != nil {
		return DownloadResult{}, opError(OpDownload, p, err)
	}

	out := s.persister.Save(data, localPath)
	result := downloadResult(out)

	msg := result.Error
	if result.Success {
		msg = fmt.Sprintf("saved to %s (%s)", result.Path, result.Method)
	}

	s.record(ctx, OpDownload, p, result.Success, msg)

	return result, nil
}

func downloadResult(out persist.Outcome) DownloadResult {
	r := DownloadResult{
		Success: out.Success,
		Path:    out.Path,
		Size:    out.Size,
		Method:  out.Method,
	}

	if out.PrimaryError != nil {
		r.PrimaryError = out.PrimaryError.Error()
	}

	if out.FallbackError != nil {
		r.FallbackError = out.FallbackError.Error()
	}

	if !out.Success {
		r.Error = "Both primary and fallback saves failed"
	}

	return r
}

func missingFile(name, folder string) string {
	return fmt.Sprintf("File '%s' does not exist in '%s'", name, folder)
}
