package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/services"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/utils"
)

const (
	filesField      = "files"
	maxJSONBodySize = 1 << 20 // 1MB
	formOverhead    = 1 << 20
)

// Limits bounds the size of an upload batch.
type Limits struct {
	MaxFileSize      int64
	MaxFilesPerBatch int
}

type AnalysisHandler struct {
	service  services.AnalysisService
	logger   *utils.Logger
	validate *validator.Validate
	limits   Limits
}

func NewAnalysisHandler(service services.AnalysisService, logger *utils.Logger, limits Limits) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
		limits:   limits,
	}
}

func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.readUploads(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.CreateAnalysis(r.Context(), uploads)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *AnalysisHandler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Analysis ID is required"))
		return
	}

	uploads, err := h.readUploads(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.AddDocuments(r.Context(), id, uploads)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Analysis ID is required"))
		return
	}

	resp, err := h.service.GetAnalysis(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetDocument streams back the original bytes of an archived document.
func (h *AnalysisHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	position, err := strconv.Atoi(vars["position"])
	if err != nil || position < 0 {
		h.respondError(w, utils.NewBadRequestError("Document position must be a non-negative integer"))
		return
	}

	doc, data, err := h.service.GetDocument(r.Context(), vars["id"], position)
	if err != nil {
		h.respondError(w, err)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write document", "error", err, "analysis_id", doc.AnalysisID, "position", position)
	}
}

func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, format, err := h.service.Report(r.Context(), id, r.URL.Query().Get("format"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("Failed to write report", "error", err, "analysis_id", id)
	}
}

func (h *AnalysisHandler) DeriveSimulationParams(w http.ResponseWriter, r *http.Request) {
	var req models.TextAnalysisRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	params, err := h.service.DeriveSimulationParams(r.Context(), req.Text)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, params)
}

func (h *AnalysisHandler) TriggerSimulation(w http.ResponseWriter, r *http.Request) {
	var params models.DisruptionSimulationParams
	if err := h.decodeJSON(w, r, &params); err != nil {
		h.respondError(w, err)
		return
	}

	resp, err := h.service.TriggerSimulation(r.Context(), params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// readUploads parses a multipart batch from the "files" field.
func (h *AnalysisHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]*models.UploadRequest, error) {
	maxBody := h.limits.MaxFileSize*int64(h.limits.MaxFilesPerBatch) + formOverhead

	// Reject oversized requests before reading the body.
	if r.ContentLength > maxBody {
		return nil, utils.NewRequestTooLargeError("Upload exceeds the batch size limit")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(h.limits.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, utils.NewRequestTooLargeError("Upload exceeds the batch size limit")
		}
		return nil, utils.NewBadRequestError("Invalid form data")
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[filesField]
	if len(headers) == 0 {
		return nil, utils.NewBadRequestError("No files provided")
	}
	if len(headers) > h.limits.MaxFilesPerBatch {
		return nil, utils.NewBadRequestError(fmt.Sprintf("At most %d files can be uploaded at once", h.limits.MaxFilesPerBatch))
	}

	uploads := make([]*models.UploadRequest, 0, len(headers))
	for _, header := range headers {
		upload, err := h.readFile(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}

	h.logger.Info("File upload attempt", "files", len(uploads))
	return uploads, nil
}

func (h *AnalysisHandler) readFile(header *multipart.FileHeader) (*models.UploadRequest, error) {
	if header.Size > h.limits.MaxFileSize {
		return nil, utils.NewRequestTooLargeError(fmt.Sprintf("File %s exceeds the %d byte limit", header.Filename, h.limits.MaxFileSize))
	}

	file, err := header.Open()
	if err != nil {
		return nil, utils.WrapInternal("Failed to read file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.limits.MaxFileSize+1))
	if err != nil {
		return nil, utils.WrapInternal("Failed to read file", err)
	}
	if int64(len(data)) > h.limits.MaxFileSize {
		return nil, utils.NewRequestTooLargeError(fmt.Sprintf("File %s exceeds the %d byte limit", header.Filename, h.limits.MaxFileSize))
	}

	return &models.UploadRequest{
		File:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

func (h *AnalysisHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewBadRequestError("Invalid JSON body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return utils.NewBadRequestError(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Field %s failed the %s check", fe.Field(), fe.Tag())
	}
	return "Invalid request"
}

func (h *AnalysisHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *AnalysisHandler) respondError(w http.ResponseWriter, err error) {
	status := utils.StatusCode(err)
	message := "Internal server error"

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error", "status", status, "error", err)
	} else {
		h.logger.Warn("Request error", "status", status, "error", message)
	}

	h.respondJSON(w, status, map[string]string{"error": message})
}
