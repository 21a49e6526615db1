package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
	"github.com/sh-sharifi-190/wetransfer/internal/store"
	"github.com/sh-sharifi-190/wetransfer/internal/upload"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxLogoUploadBytes = 10 << 20

// ConfigService is the configuration API the handlers serve.
type ConfigService interface {
	Entries(ctx context.Context) ([]settings.Entry, error)
	EntriesForCategory(ctx context.Context, category string) ([]settings.AdminEntry, error)
	Resolve(key string, entries []settings.Entry) settings.Value
	ResolveLive(ctx context.Context, key string) (settings.Value, error)
	Overridden(key string) bool
	UpdateMany(ctx context.Context, updates []settings.Update) ([]settings.AdminEntry, error)
	FinishSetup(ctx context.Context) ([]settings.AdminEntry, error)
	SendTestEmail(ctx context.Context, email string) error
	ChangeLogo(ctx context.Context, filename string, logo io.Reader) error
	IsNewReleaseAvailable(ctx context.Context) (bool, error)
}

// Handler wires the configuration service into HTTP handlers.
type Handler struct {
	service ConfigService

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(service ConfigService, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Entries(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (h *Handler) handleListCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.PathValue("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "category must not be empty")
		return
	}

	entries, err := h.service.EntriesForCategory(r.Context(), category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (h *Handler) handleUpdateConfigs(w http.ResponseWriter, r *http.Request) {
	var updates []settings.Update
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	for _, update := range updates {
		if strings.TrimSpace(update.Key) == "" {
			writeError(w, http.StatusBadRequest, "Invalid request", "every update needs a key")
			return
		}
	}

	entries, err := h.service.UpdateMany(r.Context(), updates)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, err := h.service.ResolveLive(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := resolveResponse{
		Key:        key,
		Value:      value,
		Kind:       value.Kind().String(),
		Overridden: h.service.Overridden(key),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFinishSetup(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.FinishSetup(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (h *Handler) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "email must not be empty")
		return
	}

	if err := h.service.SendTestEmail(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleChangeLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "multipart field \"file\" is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if err := h.service.ChangeLogo(r.Context(), header.Filename, file); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	available, err := h.service.IsNewReleaseAvailable(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, releaseResponse{NewReleaseAvailable: available})
}

func (h *Handler) handleUploadCheck(w http.ResponseWriter, r *http.Request) {
	var req uploadCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.Sizes) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "sizes must contain at least one file size")
		return
	}

	entries, err := h.service.Entries(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	gate := upload.Gate{MaxShareSize: h.service.Resolve(upload.MaxShareSizeKey, entries)}
	total, err := gate.Check(req.Sizes)
	if err != nil {
		var tooLarge *upload.TooLargeError
		if errors.As(err, &tooLarge) {
			suggestion := fmt.Sprintf("Keep the share below %s", upload.HumanSize(tooLarge.Limit))
			writeError(w, http.StatusRequestEntityTooLarge, "Share too large", err.Error(), suggestion)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	resp := uploadCheckResponse{
		Total:      total,
		Limit:      gate.Limit(),
		LimitHuman: upload.HumanSize(gate.Limit()),
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

type resolveResponse struct {
	Key        string         `json:"key"`
	Value      settings.Value `json:"value"`
	Kind       string         `json:"kind"`
	Overridden bool           `json:"overridden"`
}

type testEmailRequest struct {
	Email string `json:"email"`
}

type releaseResponse struct {
	NewReleaseAvailable bool `json:"newReleaseAvailable"`
}

type uploadCheckRequest struct {
	Sizes []int64 `json:"sizes"`
}

type uploadCheckResponse struct {
	Total      int64  `json:"total"`
	Limit      int64  `json:"limit"`
	LimitHuman string `json:"limitHuman"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var statusErr *store.StatusError
	switch {
	case errors.Is(err, store.ErrUnknownKey),
		errors.Is(err, store.ErrReadOnlyKey),
		errors.Is(err, store.ErrInvalidEmail),
		errors.Is(err, store.ErrEmptyLogo),
		errors.Is(err, store.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, store.ErrLogoTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Logo too large", err.Error())
	case errors.As(err, &statusErr):
		details := fmt.Sprintf("configuration store responded with status %d", statusErr.StatusCode)
		writeError(w, http.StatusBadGateway, "Configuration store error", details)
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, store.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, "Configuration store unavailable", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
