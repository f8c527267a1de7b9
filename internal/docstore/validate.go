package docstore

import (
	"encoding/base64"
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tonimelisma/sharepoint-go/internal/libpath"
)

// maxNameLength is SharePoint's limit on a single path segment.
const maxNameLength = 255

// invalidNameChars are characters SharePoint rejects in file and folder
// names.
var invalidNameChars = regexp.MustCompile(`^[^"*:<>?|\x00-\x1f]*$`)

var nameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, maxNameLength),
	validation.By(segmentRule),
	validation.Match(invalidNameChars).Error(`name cannot contain " * : < > ? | or control characters`),
}

func segmentRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	return libpath.ValidName(s)
}

type fileRequest struct {
	Folder   string `json:"folder_name"`
	FileName string `json:"file_name"`
}

func (r *fileRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileName, nameRules...),
	)
}

type createFolderRequest struct {
	Name   string `json:"folder_name"`
	Parent string `json:"parent_folder"`
}

func (r *createFolderRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, nameRules...),
	)
}

type deleteFolderRequest struct {
	Path string `json:"folder_path"`
}

func (r *deleteFolderRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
	)
}

type uploadRequest struct {
	Folder   string `json:"folder_name"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
	IsBase64 bool   `json:"is_base64"`
}

func (r *uploadRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileName, nameRules...),
		validation.Field(&r.Content, validation.When(r.IsBase64, validation.By(base64Rule))),
	)
}

func base64Rule(value any) error {
	s, _ := value.(string)
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return errors.New("must be valid base64")
	}

	return nil
}

// payload returns the bytes to upload.
func (r *uploadRequest) payload() []byte {
	if !r.IsBase64 {
		return []byte(r.Content)
	}

	data, _ := base64.StdEncoding.DecodeString(r.Content)

	return data
}

type uploadPathRequest struct {
	Folder      string `json:"folder_name"`
	LocalPath   string `json:"file_path"`
	NewFileName string `json:"new_file_name"`
}

func (r *uploadPathRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LocalPath, validation.Required),
		validation.Field(&r.NewFileName, validation.When(r.NewFileName != "", nameRules...)),
	)
}

type downloadRequest struct {
	Folder    string `json:"folder_name"`
	FileName  string `json:"file_name"`
	LocalPath string `json:"local_path"`
}

func (r *downloadRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileName, nameRules...),
		validation.Field(&r.LocalPath, validation.Required),
	)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (r *searchRequest) validate(maxLimit int) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, 1024)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(maxLimit)),
	)
}
