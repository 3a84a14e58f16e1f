package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=progress_mocks_test.go -package=progress_test

type progressService interface {
	AddWeightReport(ctx context.Context, userID string, wr WeightReport) (*Entry, error)
	AddMeasurement(ctx context.Context, userID string, measurement Measurement) (*Entry, error)
	AddNote(ctx context.Context, userID string, n Note) (*Entry, error)
	List(ctx context.Context, params ListParams) ([]Entry, error)
	Count(ctx context.Context, params EntryParams) (int, error)
	WeightHistory(ctx context.Context, userID string, since *time.Time) ([]WeightPoint, error)
	Delete(ctx context.Context, id int, userID string) error
}

// NewEntryRequest carries a progress record to log, dispatched by kind. Fields
// that do not apply to the given kind are ignored.
type NewEntryRequest struct {
	Kind       EntryKind `json:"kind"`
	WeightKG   float64   `json:"weightKg"`
	BodyFatPct float64   `json:"bodyFatPct"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recordedAt"`
}

type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

type WeightHistoryResponse struct {
	Points []WeightPoint `json:"points"`
}

type DeleteEntryResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	service progressService
	metrics *metrics.Manager
}

func NewHandler(service progressService, metrics *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.new")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req NewEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new progress entry, unmarshal json params: %s", err)
		http.Error(w, "add progress entry failed", http.StatusBadRequest)
		return
	}

	if !req.Kind.IsValid() {
		http.Error(w, "error, invalid progress kind", http.StatusBadRequest)
		return
	}
	if req.RecordedAt.IsZero() {
		req.RecordedAt = time.Now()
	}

	var (
		entry *Entry
		err   error
	)
	switch req.Kind {
	case EntryKindWeight:
		if req.WeightKG <= 0 {
			http.Error(w, "error, weight must be greater than 0", http.StatusBadRequest)
			return
		}
		entry, err = handler.service.AddWeightReport(ctx, userID, WeightReport{
			WeightKG:   req.WeightKG,
			BodyFatPct: req.BodyFatPct,
			RecordedAt: req.RecordedAt,
		})
	case EntryKindMeasurement:
		if req.BodyFatPct <= 0 {
			http.Error(w, "error, body fat percentage must be greater than 0", http.StatusBadRequest)
			return
		}
		entry, err = handler.service.AddMeasurement(ctx, userID, Measurement{
			BodyFatPct: req.BodyFatPct,
			Notes:      req.Notes,
			RecordedAt: req.RecordedAt,
		})
	case EntryKindNote:
		if strings.TrimSpace(req.Notes) == "" {
			http.Error(w, "error, notes empty", http.StatusBadRequest)
			return
		}
		entry, err = handler.service.AddNote(ctx, userID, Note{
			Notes:      req.Notes,
			RecordedAt: req.RecordedAt,
		})
	}
	if err != nil {
		log.Errorf("failed to add %s progress entry for user %s: %s", req.Kind, userID, err)
		http.Error(w, "error, failed to add progress entry", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterProgressEntries.Inc()

	entryJson, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("failed to marshal new progress entry: %s", err)
		http.Error(w, "error, failed to add progress entry", http.StatusInternalServerError)
		return
	}

	log.Debugf("new progress entry added: %s", entryJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, entryJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	pageStr := vars["page"]
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		log.Tracef("handle get progress entries page, from <page> param: %s", err)
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	sizeStr := vars["size"]
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		log.Tracef("handle get progress entries page, from <size> param: %s", err)
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}

	if page < 1 {
		http.Error(w, "invalid page (has to be non-zero value)", http.StatusBadRequest)
		return
	}
	if size < 1 {
		http.Error(w, "invalid size (has to be non-zero value)", http.StatusBadRequest)
		return
	}

	entryParams := EntryParams{
		UserID: userID,
	}
	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		kind := EntryKind(kindStr)
		if !kind.IsValid() {
			http.Error(w, "error, invalid progress kind", http.StatusBadRequest)
			return
		}
		entryParams.Kind = &kind
	}

	entries, err := handler.service.List(ctx, ListParams{
		EntryParams: entryParams,
		Page:        page,
		Size:        size,
	})
	if err != nil {
		log.Errorf("list progress entries error: %s", err)
		http.Error(w, "failed to get progress entries", http.StatusInternalServerError)
		return
	}

	total, err := handler.service.Count(ctx, entryParams)
	if err != nil {
		log.Errorf("count progress entries error: %s", err)
		http.Error(w, "failed to get progress entries", http.StatusInternalServerError)
		return
	}

	listResponseJson, err := json.Marshal(ListResponse{
		Entries: entries,
		Total:   total,
	})
	if err != nil {
		log.Errorf("marshal progress entries error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listResponseJson, http.StatusOK)
}

// HandleWeightHistory answers with the weight readings of a user, oldest
// first, the full history unless a `since` day is given.
func (handler *Handler) HandleWeightHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.weightHistory")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var since *time.Time
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		sinceDay, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			http.Error(w, "invalid since param, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		since = &sinceDay
	}

	points, err := handler.service.WeightHistory(ctx, userID, since)
	if err != nil {
		log.Errorf("failed to get weight history for user %s: %s", userID, err)
		http.Error(w, "failed to get weight history", http.StatusInternalServerError)
		return
	}

	historyJson, err := json.Marshal(WeightHistoryResponse{
		Points: points,
	})
	if err != nil {
		log.Errorf("failed to marshal weight history: %s", err)
		http.Error(w, "failed to marshal weight history", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, historyJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.service.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "progress entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete progress entry %d: %s", id, err)
		http.Error(w, "progress entry not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteEntryResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
