package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/routes"
)

// Handler provides HTTP endpoints for document vault operations. Every
// endpoint operates on the verified owner supplied by the auth middleware.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "GET", Pattern: "/{slot}", Handler: h.Get},
			{Method: "PUT", Pattern: "/{slot}", Handler: h.Replace},
			{Method: "DELETE", Pattern: "/{slot}", Handler: h.Delete},
			{Method: "GET", Pattern: "/{slot}/file", Handler: h.Download},
		},
	}
}

// List returns one entry per slot the owner currently occupies.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}

	results, err := h.sys.List(r.Context(), owner)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, results)
}

// Upload accepts a multipart payload with one file part and a slot_type
// discriminator field. A missing discriminator is rejected before any
// bytes are persisted.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}

	up, err := h.parseUpload(r, "")
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Upload(r.Context(), owner, *up)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Replace swaps the slot's current document for the uploaded one; the
// slot comes from the path.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}

	up, err := h.parseUpload(r, r.PathValue("slot"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Replace(r.Context(), owner, *up)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Get returns the slot's Active record with a fresh download URL.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}

	slot, err := ParseSlotType(r.PathValue("slot"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Get(r.Context(), owner, slot)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Delete demotes the slot's Active record. Repeated deletes on an empty
// slot return 404 every time.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}

	slot, err := ParseSlotType(r.PathValue("slot"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.sys.Delete(r.Context(), owner, slot); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download streams the document through the service for callers that
// cannot follow signed URLs.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}

	slot, err := ParseSlotType(r.PathValue("slot"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	record, body, err := h.sys.Download(r.Context(), owner, slot)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(record.FileSizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

// parseUpload extracts the file and slot discriminator from a multipart
// request. The discriminator is checked before the file is read.
func (h *Handler) parseUpload(r *http.Request, slotValue string) (*Upload, error) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("%w: malformed multipart body: %v", ErrMissingFile, err)
	}

	if slotValue == "" {
		slotValue = r.FormValue("slot_type")
	}
	slot, err := ParseSlotType(slotValue)
	if err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, ErrMissingFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFile, err)
	}

	mimeType := detectMimeType(header.Header.Get("Content-Type"), data)

	return &Upload{
		Data:      data,
		FileName:  header.Filename,
		MimeType:  mimeType,
		SlotType:  slot,
		PageCount: extractPDFPageCount(h.logger, data, mimeType),
	}, nil
}

func detectMimeType(header string, data []byte) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, mimeType string) *int {
	if mimeType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
