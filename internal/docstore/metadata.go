package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
	"github.com/tonimelisma/sharepoint-go/internal/retry"
)

// GetFileMetadata returns every non-null list-item field of a file as a
// string.
func (s *Service) GetFileMetadata(ctx context.Context, folder, name string) (MetadataResult, error) {
	req := fileRequest{Folder: folder, FileName: name}
	if err := req.validate(); err != nil {
		return MetadataResult{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return MetadataResult{}, err
	}

	s.logger.Info("getting metadata", slog.String("path", p))

	fields, err := retry.Do(ctx, s.exec, s.settings().Retry, "get metadata", func(ctx context.Context) (map[string]string, error) {
		return s.remote.GetListItemFields(ctx, p)
	})
	if errors.Is(err, graph.ErrNotFound) {
		return MetadataResult{Message: missingFile(name, folder)}, nil
	}

	if err != nil {
		return MetadataResult{}, opError(OpGetMetadata, p, err)
	}

	if fields == nil {
		fields = map[string]string{}
	}

	return MetadataResult{
		Success:  true,
		Message:  fmt.Sprintf("Metadata retrieved for '%s'", name),
		Metadata: fields,
		File:     &FileRef{Name: name, Path: p},
	}, nil
}

// UpdateFileMetadata sets list-item fields on a file. Values are
// normalized to the strings SharePoint expects: nil entries are skipped,
// booleans become "1" or "0", and lists are joined with ";".
func (s *Service) UpdateFileMetadata(ctx context.Context, folder, name string, metadata map[string]any) (Result, error) {
	req := fileRequest{Folder: folder, FileName: name}
	if err := req.validate(); err != nil {
		return Result{}, invalid(err)
	}

	p, err := s.resolveFile(folder, name)
	if err != nil {
		return Result{}, err
	}

	fields := NormalizeFields(metadata)
	if len(fields) == 0 {
		return Result{Success: true, Message: "No fields to update"}, nil
	}

	_, ok, err := s.fileExists(ctx, OpUpdateMetadata, p)
	if err != nil {
		return Result{}, err
	}

	if !ok {
		return Result{Message: missingFile(name, folder)}, nil
	}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	s.logger.Info("updating metadata", slog.String("path", p), slog.Int("fields", len(fields)))

	err = retry.Exec(ctx, s.exec, s.settings().Retry, "update metadata", func(ctx context.Context) error {
		return s.remote.SetListItemFields(ctx, p, values)
	})
	if err != nil {
		s.record(ctx, OpUpdateMetadata, p, false, err.Error())
		return Result{}, opError(OpUpdateMetadata, p, err)
	}

	msg := fmt.Sprintf("Updated %d field(s) for '%s'", len(fields), name)
	s.record(ctx, OpUpdateMetadata, p, true, msg)

	return Result{Success: true, Message: msg}, nil
}

// NormalizeFields converts caller-supplied metadata values to strings.
func NormalizeFields(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))

	for k, v := range metadata {
		if v == nil {
			continue
		}

		out[k] = fieldString(v)
	}

	return out
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}

		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case []string:
		return strings.Join(t, ";")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fieldString(e)
		}

		return strings.Join(parts, ";")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}

		return string(b)
	}
}
