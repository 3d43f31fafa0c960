package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/geo"
	"github.com/fleetpunch/attendance-backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Handler serves the attendance endpoints for the authenticated worker.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

// pingRequest is the body shared by every ping endpoint. when overrides the
// server clock and recorded_at is accepted as an alias.
type pingRequest struct {
	Latitude   *float64 `json:"latitude" validate:"required,latitude"`
	Longitude  *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy   *float64 `json:"accuracy" validate:"omitempty,gte=0"`
	When       string   `json:"when,omitempty"`
	RecordedAt string   `json:"recorded_at,omitempty"`
}

// maxClockSkew is how far ahead of the server clock a client timestamp may be.
const maxClockSkew = 2 * time.Minute

// timestampLayouts are tried in order. Naive timestamps are read in the
// business time zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// decodePing reads and validates a ping body. The returned error is already
// a domain error.
func (h *Handler) decodePing(r *http.Request) (Ping, error) {
	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return Ping{}, invalidLocation(fmt.Errorf("malformed body: %w", err))
	}

	if err := h.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]any, len(ve))
			for _, fe := range ve {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
			return Ping{}, ErrInvalidLocation.with(fields)
		}
		return Ping{}, invalidLocation(err)
	}

	p := Ping{Coordinate: geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}}
	if req.Accuracy != nil {
		p.Accuracy = *req.Accuracy
	}

	raw := req.When
	if raw == "" {
		raw = req.RecordedAt
	}
	if raw != "" {
		t, err := parseTimestamp(raw, h.svc.policy.Location())
		if err != nil {
			return Ping{}, invalidLocation(err)
		}
		if t.After(h.svc.Now().Add(maxClockSkew)) {
			return Ping{}, invalidLocation(fmt.Errorf("timestamp %q is ahead of server time", raw))
		}
		p.At = t
	}
	return p, nil
}

func (h *Handler) PunchInHandler(w http.ResponseWriter, r *http.Request) {
	workerID, _ := utils.GetWorkerIDFromContext(r.Context())

	p, err := h.decodePing(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.svc.PunchIn(r.Context(), workerID, p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":                 true,
		"attendance_id":           sess.ID,
		"punch_in_at":             sess.PunchInAt,
		"point_id":                sess.PointID,
		"distance_meters":         sess.GeofenceDistanceM,
		"allowed_radius":          sess.GeofenceRadiusM,
		"expected_delivery_count": sess.ExpectedDeliveryCount,
	})
}

func (h *Handler) PunchOutHandler(w http.ResponseWriter, r *http.Request) {
	workerID, _ := utils.GetWorkerIDFromContext(r.Context())

	p, err := h.decodePing(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.svc.PunchOut(r.Context(), workerID, p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"attendance_id": sess.ID,
		"punch_in_at":   sess.PunchInAt,
		"punch_out_at":  sess.PunchOutAt,
		"distance_km":   sess.DistanceKm,
	})
}

func (h *Handler) LocationHandler(w http.ResponseWriter, r *http.Request) {
	workerID, _ := utils.GetWorkerIDFromContext(r.Context())

	p, err := h.decodePing(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.IngestLocation(r.Context(), workerID, p)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Debounced {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"success":     true,
		"tracking_id": res.Point.ID,
		"recorded_at": res.Point.RecordedAt,
		"debounced":   res.Debounced,
	})
}

func (h *Handler) DeliveryHandler(w http.ResponseWriter, r *http.Request) {
	workerID, _ := utils.GetWorkerIDFromContext(r.Context())

	p, err := h.decodePing(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ev, err := h.svc.RecordDelivery(r.Context(), workerID, p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"delivery_id":   ev.ID,
		"attendance_id": ev.AttendanceID,
		"recorded_at":   ev.RecordedAt,
	})
}

func (h *Handler) TodayHandler(w http.ResponseWriter, r *http.Request) {
	workerID, _ := utils.GetWorkerIDFromContext(r.Context())

	view, err := h.svc.Current(r.Context(), workerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"date":    h.svc.CurrentDate(),
		"today":   view,
	})
}

func (h *Handler) TrackHandler(w http.ResponseWriter, r *http.Request) {
	workerID, _ := utils.GetWorkerIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, ErrSessionNotFound)
		return
	}

	points, err := h.svc.Track(r.Context(), workerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"attendance_id": id,
		"points":        points,
		"distance_km":   AccrueDistance(points),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[attendance] encode response: %v", err)
	}
}

// writeError renders domain errors with their code. Anything else is an
// internal failure and is logged, not echoed.
func writeError(w http.ResponseWriter, err error) {
	de, ok := DomainError(err)
	if !ok {
		log.Printf("[attendance] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"code":    "INTERNAL_ERROR",
			"message": "Internal server error",
		})
		return
	}

	status := http.StatusBadRequest
	switch {
	case de.Kind == KindConflict:
		status = http.StatusConflict
	case errors.Is(de, ErrSessionNotFound):
		status = http.StatusNotFound
	}

	body := map[string]any{
		"success": false,
		"code":    de.Code,
		"message": de.Message,
	}
	if len(de.Details) > 0 {
		body["details"] = de.Details
	}
	writeJSON(w, status, body)
}
