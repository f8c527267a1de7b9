package mcpserver

import (
	"context"
)

// Tool names.
const (
	ToolListFolders        = "List_Folders"
	ToolCreateFolder       = "Create_Folder"
	ToolDeleteFolder       = "Delete_Folder"
	ToolGetTree            = "Get_Tree"
	ToolListDocuments      = "List_Documents"
	ToolSearch             = "Search"
	ToolGetDocumentContent = "Get_Document_Content"
	ToolUploadDocument     = "Upload_Document"
	ToolUploadFromPath     = "Upload_Document_From_Path"
	ToolUpdateDocument     = "Update_Document"
	ToolDeleteDocument     = "Delete_Document"
	ToolDownloadDocument   = "Download_Document"
	ToolGetFileMetadata    = "Get_File_Metadata"
	ToolUpdateFileMetadata = "Update_File_Metadata"
)

type parentArgs struct {
	ParentFolder string `json:"parent_folder,omitempty" jsonschema:"folder path relative to the library root; omit for the root"`
}

type createFolderArgs struct {
	FolderName   string `json:"folder_name" jsonschema:"name of the folder to create"`
	ParentFolder string `json:"parent_folder,omitempty" jsonschema:"parent folder path; omit for the library root"`
}

type deleteFolderArgs struct {
	FolderPath string `json:"folder_path" jsonschema:"path of the empty folder to delete"`
}

type folderArgs struct {
	FolderName string `json:"folder_name" jsonschema:"folder path relative to the library root"`
}

type fileArgs struct {
	FolderName string `json:"folder_name" jsonschema:"folder path relative to the library root"`
	FileName   string `json:"file_name" jsonschema:"file name inside the folder"`
}

type contentArgs struct {
	FolderName string `json:"folder_name" jsonschema:"folder path relative to the library root"`
	FileName   string `json:"file_name" jsonschema:"file name inside the folder"`
	Content    string `json:"content" jsonschema:"file content as UTF-8 text, or base64 when is_base64 is true"`
	IsBase64   bool   `json:"is_base64,omitempty" jsonschema:"set when content is base64-encoded binary"`
}

type uploadPathArgs struct {
	FolderName  string `json:"folder_name" jsonschema:"destination folder path relative to the library root"`
	FilePath    string `json:"file_path" jsonschema:"local file to upload"`
	NewFileName string `json:"new_file_name,omitempty" jsonschema:"name to store the file under; defaults to the local file name"`
}

type downloadArgs struct {
	FolderName string `json:"folder_name" jsonschema:"folder path relative to the library root"`
	FileName   string `json:"file_name" jsonschema:"file name inside the folder"`
	LocalPath  string `json:"local_path" jsonschema:"local destination path"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"text to search for in file names and contents"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

type metadataArgs struct {
	FolderName string         `json:"folder_name" jsonschema:"folder path relative to the library root"`
	FileName   string         `json:"file_name" jsonschema:"file name inside the folder"`
	Metadata   map[string]any `json:"metadata" jsonschema:"field names and new values; null values are skipped and lists are joined with ;"`
}

func (s *Server) registerTools() {
	addTool(s, ToolListFolders,
		"List all sub-folders in a SharePoint folder (or the library root if not specified).",
		func(ctx context.Context, in parentArgs) (any, error) {
			return s.svc.ListFolders(ctx, in.ParentFolder)
		})

	addTool(s, ToolCreateFolder,
		"Create a new folder in a SharePoint folder (or the library root if not specified).",
		func(ctx context.Context, in createFolderArgs) (any, error) {
			return s.svc.CreateFolder(ctx, in.FolderName, in.ParentFolder)
		})

	addTool(s, ToolDeleteFolder,
		"Delete an empty folder from SharePoint.",
		func(ctx context.Context, in deleteFolderArgs) (any, error) {
			return s.svc.DeleteFolder(ctx, in.FolderPath)
		})

	addTool(s, ToolGetTree,
		"Get a recursive tree of folders and files starting from a SharePoint folder.",
		func(ctx context.Context, in parentArgs) (any, error) {
			return s.svc.GetTree(ctx, in.ParentFolder)
		})

	addTool(s, ToolListDocuments,
		"List all documents (with metadata) inside a SharePoint folder.",
		func(ctx context.Context, in folderArgs) (any, error) {
			return s.svc.ListDocuments(ctx, in.FolderName)
		})

	addTool(s, ToolSearch,
		"Search the document library for files and folders matching a query.",
		func(ctx context.Context, in searchArgs) (any, error) {
			return s.svc.Search(ctx, in.Query, in.Limit)
		})

	addTool(s, ToolGetDocumentContent,
		"Retrieve and decode the content of a SharePoint document. Supports PDF, Word, Excel, and plain-text files.",
		func(ctx context.Context, in fileArgs) (any, error) {
			return s.svc.GetDocumentContent(ctx, in.FolderName, in.FileName)
		})

	addTool(s, ToolUploadDocument,
		"Upload a new document to a SharePoint folder. Pass content as a UTF-8 string or base64-encoded bytes.",
		func(ctx context.Context, in contentArgs) (any, error) {
			return s.svc.UploadDocument(ctx, in.FolderName, in.FileName, in.Content, in.IsBase64)
		})

	addTool(s, ToolUploadFromPath,
		"Upload a local file directly to SharePoint without converting it to base64 first.",
		func(ctx context.Context, in uploadPathArgs) (any, error) {
			return s.svc.UploadDocumentFromPath(ctx, in.FolderName, in.FilePath, in.NewFileName)
		})

	addTool(s, ToolUpdateDocument,
		"Overwrite the content of an existing SharePoint document.",
		func(ctx context.Context, in contentArgs) (any, error) {
			return s.svc.UpdateDocument(ctx, in.FolderName, in.FileName, in.Content, in.IsBase64)
		})

	addTool(s, ToolDeleteDocument,
		"Permanently delete a document from a SharePoint folder.",
		func(ctx context.Context, in fileArgs) (any, error) {
			return s.svc.DeleteDocument(ctx, in.FolderName, in.FileName)
		})

	addTool(s, ToolDownloadDocument,
		"Download a SharePoint document to the local filesystem, falling back to a temporary directory if the path is not writable.",
		func(ctx context.Context, in downloadArgs) (any, error) {
			return s.svc.DownloadDocument(ctx, in.FolderName, in.FileName, in.LocalPath)
		})

	addTool(s, ToolGetFileMetadata,
		"Retrieve all SharePoint list-item metadata fields for a document.",
		func(ctx context.Context, in fileArgs) (any, error) {
			return s.svc.GetFileMetadata(ctx, in.FolderName, in.FileName)
		})

	addTool(s, ToolUpdateFileMetadata,
		"Update one or more SharePoint list-item metadata fields for a document.",
		func(ctx context.Context, in metadataArgs) (any, error) {
			return s.svc.UpdateFileMetadata(ctx, in.FolderName, in.FileName, in.Metadata)
		})
}
