package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
	"habitgrid/internal/service/habit"
	"habitgrid/pkg/logger"
)

// Error messages are part of the wire contract.
const (
	errInvalidRange  = "invalid start/end"
	errInvalidBody   = "invalid body"
	errInvalidStatus = "invalid status"
	errHabitNotFound = "habit not found"
	errInvalidWindow = "invalid start/shift"
	errInternal      = "internal error"
)

type HabitService interface {
	ListHabits(ctx context.Context) ([]model.Habit, error)
	ListLogs(ctx context.Context, start, end time.Time) ([]model.LogEntry, error)
	SetStatus(ctx context.Context, habitID int64, date, status string) error
	Window(start time.Time, shiftDays int) calendar.Window
}

type HabitHandler struct {
	svc    HabitService
	logger *zap.Logger
}

func NewHabitHandler(svc HabitService, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{svc: svc, logger: logger}
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type habitsResponse struct {
	OK     bool          `json:"ok"`
	Habits []model.Habit `json:"habits"`
}

type logRow struct {
	HabitID int64        `json:"habitId"`
	LogDate string       `json:"logDate"`
	Status  model.Status `json:"status"`
}

type logsResponse struct {
	OK   bool     `json:"ok"`
	Logs []logRow `json:"logs"`
}

type windowResponse struct {
	OK         bool     `json:"ok"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Dates      []string `json:"dates"`
	WeekStarts []string `json:"weekStarts"`
}

// SetLogRequest is the POST /api/logs body. A missing or empty status clears
// the entry; an explicit null is rejected.
type SetLogRequest struct {
	HabitID int64          `json:"habitId"`
	Date    string         `json:"date"`
	Status  optionalString `json:"status"`
}

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	Value string
	Null  bool
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, errorResponse{OK: false, Error: msg})
}

// ListHabits handles GET /api/habits
func (h *HabitHandler) ListHabits(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	habits, err := h.svc.ListHabits(c.Request.Context())
	if err != nil {
		log.Error("ListHabits: failed to fetch habits", zap.Error(err))
		fail(c, http.StatusInternalServerError, errInternal)
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}

	c.JSON(http.StatusOK, habitsResponse{OK: true, Habits: habits})
}

// ListLogs handles GET /api/logs?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *HabitHandler) ListLogs(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	start, errStart := calendar.ParseDate(c.Query("start"))
	end, errEnd := calendar.ParseDate(c.Query("end"))
	if errStart != nil || errEnd != nil {
		log.Warn("ListLogs: invalid range",
			zap.String("start", c.Query("start")),
			zap.String("end", c.Query("end")),
		)
		fail(c, http.StatusBadRequest, errInvalidRange)
		return
	}

	entries, err := h.svc.ListLogs(c.Request.Context(), start, end)
	if err != nil {
		log.Error("ListLogs: failed to fetch logs", zap.Error(err))
		fail(c, http.StatusInternalServerError, errInternal)
		return
	}

	rows := make([]logRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, logRow{
			HabitID: e.HabitID,
			LogDate: calendar.FormatDate(e.LogDate),
			Status:  e.Status,
		})
	}
	c.JSON(http.StatusOK, logsResponse{OK: true, Logs: rows})
}

// SetLog handles POST /api/logs
func (h *HabitHandler) SetLog(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var req SetLogRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HabitID <= 0 || req.Status.Null {
		log.Warn("SetLog: invalid body", zap.Error(err))
		fail(c, http.StatusBadRequest, errInvalidBody)
		return
	}

	err := h.svc.SetStatus(c.Request.Context(), req.HabitID, req.Date, req.Status.Value)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, okResponse{OK: true})
	case errors.Is(err, habit.ErrInvalidDate):
		fail(c, http.StatusBadRequest, errInvalidBody)
	case errors.Is(err, habit.ErrHabitNotFound):
		fail(c, http.StatusNotFound, errHabitNotFound)
	case errors.Is(err, habit.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, errInvalidStatus)
	default:
		log.Error("SetLog: failed to persist status",
			zap.Int64("habit_id", req.HabitID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		fail(c, http.StatusInternalServerError, errInternal)
	}
}

// Window handles GET /api/window?start=YYYY-MM-DD&shift=N
func (h *HabitHandler) Window(c *gin.Context) {
	var (
		start time.Time
		shift int
		err   error
	)
	if raw := c.Query("start"); raw != "" {
		if start, err = calendar.ParseDate(raw); err != nil {
			fail(c, http.StatusBadRequest, errInvalidWindow)
			return
		}
	}
	if raw := c.Query("shift"); raw != "" {
		if shift, err = strconv.Atoi(raw); err != nil {
			fail(c, http.StatusBadRequest, errInvalidWindow)
			return
		}
	}

	w := h.svc.Window(start, shift)
	c.JSON(http.StatusOK, windowResponse{
		OK:         true,
		Start:      calendar.FormatDate(w.Start),
		End:        calendar.FormatDate(w.End),
		Dates:      calendar.FormatDates(w.Dates),
		WeekStarts: calendar.FormatDates(calendar.WeekStarts(w.Start)),
	})
}
