package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/pkg/routes"
	"github.com/docvault/docvault/pkg/storage"
)

type fakeSystem struct {
	lastUpload *documents.Upload
	retrieval  *documents.Retrieval
	list       []documents.Retrieval
	record     *documents.Document
	body       string
	err        error
}

func (f *fakeSystem) Handler() *documents.Handler { return nil }

func (f *fakeSystem) Upload(ctx context.Context, ownerID string, up documents.Upload) (*documents.Retrieval, error) {
	f.lastUpload = &up
	return f.retrieval, f.err
}

func (f *fakeSystem) Replace(ctx context.Context, ownerID string, up documents.Upload) (*documents.Retrieval, error) {
	f.lastUpload = &up
	return f.retrieval, f.err
}

func (f *fakeSystem) Get(ctx context.Context, ownerID string, slot documents.SlotType) (*documents.Retrieval, error) {
	return f.retrieval, f.err
}

func (f *fakeSystem) List(ctx context.Context, ownerID string) ([]documents.Retrieval, error) {
	return f.list, f.err
}

func (f *fakeSystem) Delete(ctx context.Context, ownerID string, slot documents.SlotType) error {
	return f.err
}

func (f *fakeSystem) Download(ctx context.Context, ownerID string, slot documents.SlotType) (*documents.Document, io.ReadCloser, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.record, io.NopCloser(strings.NewReader(f.body)), nil
}

func handlerMux(sys documents.System) *http.ServeMux {
	h := documents.NewHandler(sys, slog.Default(), documents.DefaultMaxFileSize)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func sampleRetrieval() *documents.Retrieval {
	return &documents.Retrieval{
		DocumentID:    uuid.New(),
		SlotType:      documents.SlotPortrait,
		FileName:      "photo.jpg",
		FileSizeBytes: 1024,
		MimeType:      "image/jpeg",
		DownloadURL:   "https://blobs.test/documents/owner-1/portrait/1-ab-photo.jpg?sig=fake",
	}
}

// multipartBody builds a request body with an optional slot_type field and
// an optional file part carrying an explicit content type.
func multipartBody(t *testing.T, slotType, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if slotType != "" {
		if err := w.WriteField("slot_type", slotType); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	return &buf, w.FormDataContentType()
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(auth.WithOwnerID(req.Context(), "owner-1"))
}

func TestHandlerUpload(t *testing.T) {
	sys := &fakeSystem{retrieval: sampleRetrieval()}
	mux := handlerMux(sys)

	body, contentType := multipartBody(t, "portrait", "photo.jpg", "image/jpeg", []byte("jpeg bytes"))
	req := authed(httptest.NewRequest("POST", "/documents", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if sys.lastUpload == nil {
		t.Fatal("system never received the upload")
	}
	if sys.lastUpload.SlotType != documents.SlotPortrait {
		t.Errorf("SlotType = %q, want portrait", sys.lastUpload.SlotType)
	}
	if sys.lastUpload.FileName != "photo.jpg" {
		t.Errorf("FileName = %q, want photo.jpg", sys.lastUpload.FileName)
	}
	if sys.lastUpload.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", sys.lastUpload.MimeType)
	}

	var got documents.Retrieval
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.DocumentID != sys.retrieval.DocumentID {
		t.Errorf("DocumentID = %v, want %v", got.DocumentID, sys.retrieval.DocumentID)
	}
}

func TestHandlerUploadMissingSlotType(t *testing.T) {
	sys := &fakeSystem{}
	mux := handlerMux(sys)

	body, contentType := multipartBody(t, "", "photo.jpg", "image/jpeg", []byte("jpeg bytes"))
	req := authed(httptest.NewRequest("POST", "/documents", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if sys.lastUpload != nil {
		t.Error("upload reached the system despite missing discriminator")
	}
}

func TestHandlerUploadMissingFile(t *testing.T) {
	sys := &fakeSystem{}
	mux := handlerMux(sys)

	body, contentType := multipartBody(t, "portrait", "", "", nil)
	req := authed(httptest.NewRequest("POST", "/documents", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerUploadUnauthenticated(t *testing.T) {
	mux := handlerMux(&fakeSystem{})

	body, contentType := multipartBody(t, "portrait", "photo.jpg", "image/jpeg", []byte("jpeg bytes"))
	req := httptest.NewRequest("POST", "/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandlerUploadSlotConflict(t *testing.T) {
	sys := &fakeSystem{err: documents.ErrSlotConflict}
	mux := handlerMux(sys)

	body, contentType := multipartBody(t, "portrait", "photo.jpg", "image/jpeg", []byte("jpeg bytes"))
	req := authed(httptest.NewRequest("POST", "/documents", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandlerUploadMalformedMultipart(t *testing.T) {
	sys := &fakeSystem{}
	mux := handlerMux(sys)

	req := authed(httptest.NewRequest("POST", "/documents", strings.NewReader("not a multipart body")))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=missing")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if sys.lastUpload != nil {
		t.Error("upload reached the system despite malformed body")
	}
}

func TestHandlerUploadStorageFailureHidesKey(t *testing.T) {
	key := "owner-1/portrait/1700000000-abcd1234-photo.jpg"
	sys := &fakeSystem{
		err: fmt.Errorf("%w: blob %s: RESPONSE 500", storage.ErrWriteFailed, key),
	}
	mux := handlerMux(sys)

	body, contentType := multipartBody(t, "portrait", "photo.jpg", "image/jpeg", []byte("jpeg bytes"))
	req := authed(httptest.NewRequest("POST", "/documents", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), key) {
		t.Errorf("response leaked the storage key: %s", rec.Body.String())
	}

	var parsed map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if parsed["error"] != http.StatusText(http.StatusInternalServerError) {
		t.Errorf("error = %q, want generic status text", parsed["error"])
	}
}

func TestHandlerReplaceUsesPathSlot(t *testing.T) {
	sys := &fakeSystem{retrieval: sampleRetrieval()}
	mux := handlerMux(sys)

	// no slot_type form field; the path segment is the discriminator
	body, contentType := multipartBody(t, "", "passport.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := authed(httptest.NewRequest("PUT", "/documents/primary_id", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if sys.lastUpload.SlotType != documents.SlotPrimaryID {
		t.Errorf("SlotType = %q, want primary_id", sys.lastUpload.SlotType)
	}
}

func TestHandlerReplaceUnknownSlot(t *testing.T) {
	sys := &fakeSystem{}
	mux := handlerMux(sys)

	body, contentType := multipartBody(t, "", "photo.jpg", "image/jpeg", []byte("jpeg bytes"))
	req := authed(httptest.NewRequest("PUT", "/documents/selfie", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerGet(t *testing.T) {
	sys := &fakeSystem{retrieval: sampleRetrieval()}
	mux := handlerMux(sys)

	req := authed(httptest.NewRequest("GET", "/documents/portrait", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got documents.Retrieval
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.DownloadURL == "" {
		t.Error("response missing download URL")
	}
}

func TestHandlerGetEmptySlot(t *testing.T) {
	sys := &fakeSystem{err: documents.ErrNotFound}
	mux := handlerMux(sys)

	req := authed(httptest.NewRequest("GET", "/documents/portrait", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerList(t *testing.T) {
	sys := &fakeSystem{list: []documents.Retrieval{*sampleRetrieval(), *sampleRetrieval()}}
	mux := handlerMux(sys)

	req := authed(httptest.NewRequest("GET", "/documents", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []documents.Retrieval
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
}

func TestHandlerDelete(t *testing.T) {
	mux := handlerMux(&fakeSystem{})

	req := authed(httptest.NewRequest("DELETE", "/documents/portrait", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestHandlerDeleteEmptySlot(t *testing.T) {
	mux := handlerMux(&fakeSystem{err: documents.ErrNotFound})

	req := authed(httptest.NewRequest("DELETE", "/documents/portrait", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerDownload(t *testing.T) {
	sys := &fakeSystem{
		record: &documents.Document{
			FileName:      "photo.jpg",
			FileSizeBytes: 10,
			MimeType:      "image/jpeg",
		},
		body: "jpeg bytes",
	}
	mux := handlerMux(sys)

	req := authed(httptest.NewRequest("GET", "/documents/portrait/file", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "photo.jpg") {
		t.Errorf("Content-Disposition = %q, want filename", got)
	}
	if rec.Body.String() != "jpeg bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
