package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tonimelisma/sharepoint-go/internal/crawl"
	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/retry"
)

// ListFolders returns the sub-folders of parent, or of the root when
// parent is empty.
func (s *Service) ListFolders(ctx context.Context, parent string) ([]graph.FolderEntry, error) {
	p, err := s.resolve(parent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("listing folders", slog.String("path", p))

	folders, err := s.listFolders(ctx, s.settings().Retry, p)
	if err != nil {
		return nil, opError(OpListFolders, p, err)
	}

	return nonNil(folders), nil
}

// CreateFolder creates name inside parent. A same-named folder already
// being there is an unsuccessful Result, not an error.
func (s *Service) CreateFolder(ctx context.Context, name, parent string) (Result, error) {
	req := createFolderRequest{Name: name, Parent: parent}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	p, err := s.resolve(parent)
	if err != nil {
		return Result{}, err
	}

	policy := s.settings().Retry
	s.logger.Info("creating folder", slog.String("name", name), slog.String("parent", p))

	existing, err := s.listFolders(ctx, policy, p)
	if err != nil {
		return Result{}, opError(OpCreateFolder, p, err)
	}

	for _, f := range existing {
		if strings.EqualFold(f.Name, name) {
			return Result{Message: fmt.Sprintf("Folder '%s' already exists", name)}, nil
		}
	}

	folder, err := retry.Do(ctx, s.exec, policy, "create folder", func(ctx context.Context) (graph.FolderEntry, error) {
		return s.remote.CreateFolder(ctx, p, name)
	})
	if errors.Is(err, graph.ErrConflict) {
		return Result{Message: fmt.Sprintf("Folder '%s' already exists", name)}, nil
	}

	if err != nil {
		s.record(ctx, OpCreateFolder, p+"/"+name, false, err.Error())
		return Result{}, opError(OpCreateFolder, p+"/"+name, err)
	}

	msg := fmt.Sprintf("Folder '%s' created successfully", name)
	s.record(ctx, OpCreateFolder, p+"/"+folder.Name, true, msg)

	return Result{
		Success: true,
		Message: msg,
		Folder:  &FolderRef{Name: folder.Name, URL: folder.URL},
	}, nil
}

// DeleteFolder deletes the folder at folderPath if and only if it is
// empty.
func (s *Service) DeleteFolder(ctx context.Context, folderPath string) (Result, error) {
	req := deleteFolderRequest{Path: folderPath}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	p, err := s.resolve(folderPath)
	if err != nil {
		return Result{}, err
	}

	if p == s.root {
		return Result{}, invalid(errors.New("refusing to delete the library root"))
	}

	s.logger.Info("deleting folder", slog.String("path", p))

	if _, err := s.remote.GetFolder(ctx, p); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return Result{Message: fmt.Sprintf("Folder '%s' does not exist", folderPath)}, nil
		}

		return Result{}, opError(OpDeleteFolder, p, err)
	}

	policy := s.settings().Retry

	files, err := s.listFiles(ctx, policy, p)
	if err != nil {
		return Result{}, opError(OpDeleteFolder, p, err)
	}

	if len(files) > 0 {
		return Result{Message: fmt.Sprintf("Folder contains %d file(s)", len(files))}, nil
	}

	folders, err := s.listFolders(ctx, policy, p)
	if err != nil {
		return Result{}, opError(OpDeleteFolder, p, err)
	}

	if len(folders) > 0 {
		return Result{Message: fmt.Sprintf("Folder contains %d sub-folder(s)", len(folders))}, nil
	}

	if err := s.deleteObject(ctx, policy, p); err != nil {
		s.record(ctx, OpDeleteFolder, p, false, err.Error())
		return Result{}, opError(OpDeleteFolder, p, err)
	}

	msg := fmt.Sprintf("Folder '%s' deleted successfully", folderPath)
	s.record(ctx, OpDeleteFolder, p, true, msg)

	return Result{Success: true, Message: msg}, nil
}

// GetTree crawls the hierarchy under parent. It never fails on remote
// errors; those become error stubs in the returned tree.
func (s *Service) GetTree(ctx context.Context, parent string) (crawl.Node, error) {
	p, err := s.resolve(parent)
	if err != nil {
		return crawl.Node{}, err
	}

	settings := s.settings()
	s.logger.Info("building folder tree",
		slog.String("path", p),
		slog.Int("max_depth", settings.Crawl.MaxDepth),
	)

	crawler := crawl.New(s.remote, s.exec, settings.Retry, s.logger).WithSleep(s.sleepFunc)

	return crawler.Crawl(ctx, p, settings.Crawl), nil
}
