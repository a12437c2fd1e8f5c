package utils

import "strings"

// OAuth scopes
const (
	ScopeReadonly = "https://www.googleapis.com/auth/drive.readonly"
)

// Listing
const (
	// ListPageSize is the largest page the Drive files.list endpoint returns
	ListPageSize = 1000
	// ListFields limits folder listings to what the mirror needs
	ListFields = "nextPageToken,files(id,name,mimeType,modifiedTime,resourceKey)"
	// ItemFields describes one item the way a listing does
	ItemFields = "id,name,mimeType,modifiedTime,resourceKey"
	// MetadataFields is requested once per leaf before the cache decision
	MetadataFields = "id,name,createdTime,webContentLink"
)

// Retry configuration
const (
	RetryPolicyFixed       = "fixed"
	RetryPolicyExponential = "exponential"
	DefaultRetryDelayMs    = 1000
	// MaxRetryDelayMs is the longest single wait between attempts
	MaxRetryDelayMs = 105000
)

// Schema version
const SchemaVersion = "1.0"

// Google Workspace MIME types
const (
	MimeTypeDocument     = "application/vnd.google-apps.document"
	MimeTypeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypePresentation = "application/vnd.google-apps.presentation"
	MimeTypeDrawing      = "application/vnd.google-apps.drawing"
	MimeTypeForm         = "application/vnd.google-apps.form"
	MimeTypeScript       = "application/vnd.google-apps.script"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	MimeTypeShortcut     = "application/vnd.google-apps.shortcut"

	workspacePrefix = "application/vnd.google-apps."
)

// Default export encoding for documents
const DefaultExportMimeType = "text/html"

// FormatMappings maps convenience format names to export MIME types
var FormatMappings = map[string]string{
	"html": "text/html",
	"zip":  "application/zip",
	"txt":  "text/plain",
	"rtf":  "application/rtf",
	"odt":  "application/vnd.oasis.opendocument.text",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"epub": "application/epub+zip",
}

// ResolveExportMimeType accepts either a MIME type or a FormatMappings key
func ResolveExportMimeType(value string) string {
	if mime, ok := FormatMappings[value]; ok {
		return mime
	}
	return value
}

// IsWorkspaceMimeType checks if a MIME type is a Google Workspace type
func IsWorkspaceMimeType(mimeType string) bool {
	return strings.HasPrefix(mimeType, workspacePrefix)
}
