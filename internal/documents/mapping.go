package documents

import (
	"github.com/docvault/docvault/pkg/query"
	"github.com/docvault/docvault/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("slot_type", "SlotType").
	Project("file_name", "FileName").
	Project("file_size_bytes", "FileSizeBytes").
	Project("mime_type", "MimeType").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("storage_container", "StorageContainer").
	Project("state", "State").
	Project("uploaded_at", "UploadedAt")

var defaultSort = query.SortField{Field: "SlotType"}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.SlotType,
		&d.FileName,
		&d.FileSizeBytes,
		&d.MimeType,
		&d.PageCount,
		&d.StorageKey,
		&d.StorageContainer,
		&d.State,
		&d.UploadedAt,
	)
	return d, err
}
