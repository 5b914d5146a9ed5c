package domain

// FileRecord describes one uploaded file.
//
// StoragePath and StoredName are populated only when the deployment
// actually retains bytes; in metadata-only mode both stay empty.
type FileRecord struct {
	OriginalName string `db:"original_name" json:"originalName"`
	MimeType     string `db:"mime_type"     json:"mimeType"`
	Size         int64  `db:"size_bytes"    json:"size"`
	StoragePath  string `db:"storage_path"  json:"storagePath,omitempty"`
	StoredName   string `db:"stored_name"   json:"storedName,omitempty"`
}
