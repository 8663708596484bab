package documents_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/documents"
)

func TestBuildStorageKey(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()

	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{"plain name", "photo.jpg", "owner-1/portrait/1700000000-abc123-photo.jpg"},
		{"path stripped", "../../etc/passwd", "owner-1/portrait/1700000000-abc123-passwd"},
		{"spaces escaped", "my photo.jpg", "owner-1/portrait/1700000000-abc123-my%20photo.jpg"},
		{"empty name", "", "owner-1/portrait/1700000000-abc123-document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := documents.BuildStorageKey("owner-1", documents.SlotPortrait, tt.fileName, at, "abc123")
			if got != tt.want {
				t.Errorf("BuildStorageKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewStorageKeyIsFresh(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := documents.NewStorageKey("owner-1", documents.SlotPrimaryID, "id.pdf")
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true

		if !strings.HasPrefix(key, fmt.Sprintf("owner-1/%s/", documents.SlotPrimaryID)) {
			t.Fatalf("key %q missing owner/slot prefix", key)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"dir/report.pdf", "report.pdf"},
		{".", "document"},
		{"", "document"},
	}

	for _, tt := range tests {
		if got := documents.SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
