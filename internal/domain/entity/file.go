package entity

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultFileExpiry is how long the service keeps an uploaded file.
const DefaultFileExpiry = 48 * time.Hour

type FileSlot struct {
	ID        string `json:"id"`
	UploadURL string `json:"upload_url"`
}

type LocalFile struct {
	Name     string
	Data     []byte
	MIMEType string
}

type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int       `json:"size"`
	MIMEType   string    `json:"type,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type RemoteFile struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Bytes     int    `json:"bytes"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type UploadStatus string

const (
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusRejected UploadStatus = "rejected"
	UploadStatusFailed   UploadStatus = "failed"
)

type UploadRecord struct {
	Filename string       `json:"filename"`
	FileID   string       `json:"file_id,omitempty"`
	Size     int          `json:"size"`
	MIMEType string       `json:"type,omitempty"`
	Status   UploadStatus `json:"status"`
	Reason   string       `json:"reason,omitempty"`
}

// Extension returns the lower-cased extension without the dot.
func Extension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

type FileCategory string

const (
	CategoryDocuments    FileCategory = "documents"
	CategorySpreadsheets FileCategory = "spreadsheets"
	CategoryData         FileCategory = "data"
	CategoryImages       FileCategory = "images"
	CategoryCode         FileCategory = "code"
	CategoryArchives     FileCategory = "archives"
	CategoryOther        FileCategory = "other"
)

var fileCategories = map[FileCategory][]string{
	CategoryDocuments:    {"pdf", "docx", "doc", "txt", "md", "rtf"},
	CategorySpreadsheets: {"csv", "xlsx", "xls"},
	CategoryData:         {"json", "xml", "yaml", "yml"},
	CategoryImages:       {"png", "jpg", "jpeg", "gif", "webp", "bmp", "svg"},
	CategoryCode:         {"py", "js", "jsx", "ts", "tsx", "html", "css", "java", "cpp", "c", "go", "rs"},
	CategoryArchives:     {"zip", "tar", "gz", "rar", "7z"},
}

func CategoryOf(filename string) FileCategory {
	ext := Extension(filename)
	for cat, exts := range fileCategories {
		for _, e := range exts {
			if e == ext {
				return cat
			}
		}
	}
	return CategoryOther
}

func IsImage(filename string) bool {
	return CategoryOf(filename) == CategoryImages
}
