package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
	"habitgrid/internal/service/habit"
)

type stubStore struct {
	habits  []model.Habit
	logs    []model.LogEntry
	rows    map[string]model.Status
	err     error
	lastArg [2]time.Time
}

func (s *stubStore) ListActive(context.Context) ([]model.Habit, error) { return s.habits, s.err }

func (s *stubStore) Exists(_ context.Context, id int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, h := range s.habits {
		if h.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListRange(_ context.Context, _ int64, start, end time.Time) ([]model.LogEntry, error) {
	s.lastArg = [2]time.Time{start, end}
	return s.logs, s.err
}

func (s *stubStore) Upsert(_ context.Context, _, habitID int64, date time.Time, st model.Status) error {
	s.rows[key(habitID, date)] = st
	return nil
}

func (s *stubStore) Delete(_ context.Context, _, habitID int64, date time.Time) error {
	delete(s.rows, key(habitID, date))
	return nil
}

func key(habitID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", habitID, calendar.FormatDate(date))
}

func setup(t *testing.T, store *stubStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if store.rows == nil {
		store.rows = map[string]model.Status{}
	}

	now := func() time.Time { return time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC) }
	svc := habit.NewService(store, store, 1, zap.NewNop(), habit.WithLocation(time.UTC), habit.WithClock(now))
	h := NewHabitHandler(svc, zap.NewNop())

	r := gin.New()
	r.GET("/api/habits", h.ListHabits)
	r.GET("/api/logs", h.ListLogs)
	r.POST("/api/logs", h.SetLog)
	r.GET("/api/window", h.Window)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListHabits(t *testing.T) {
	r := setup(t, &stubStore{habits: []model.Habit{
		{ID: 1, HabitKey: "wake_fixed", Label: "Fixed wake-up time", Frequency: model.FrequencyDaily, SortOrder: 10, Active: true},
	}})

	w := do(r, http.MethodGet, "/api/habits", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"habits":[{"id":1,"habitKey":"wake_fixed","label":"Fixed wake-up time","frequency":"daily","sortOrder":10,"active":true}]}`, w.Body.String())
}

func TestListHabitsEmptyIsArray(t *testing.T) {
	r := setup(t, &stubStore{})

	w := do(r, http.MethodGet, "/api/habits", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"habits":[]}`, w.Body.String())
}

func TestListHabitsStorageError(t *testing.T) {
	r := setup(t, &stubStore{err: errors.New("db down")})

	w := do(r, http.MethodGet, "/api/habits", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"internal error"}`, w.Body.String())
}

func TestListLogs(t *testing.T) {
	d, _ := calendar.ParseDate("2024-01-02")
	store := &stubStore{logs: []model.LogEntry{{UserID: 1, HabitID: 3, LogDate: d, Status: model.StatusPartial}}}
	r := setup(t, store)

	w := do(r, http.MethodGet, "/api/logs?start=2024-01-01&end=2024-01-28", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"logs":[{"habitId":3,"logDate":"2024-01-02","status":"partial"}]}`, w.Body.String())
	assert.Equal(t, "2024-01-01", calendar.FormatDate(store.lastArg[0]))
	assert.Equal(t, "2024-01-28", calendar.FormatDate(store.lastArg[1]))
}

func TestListLogsInvalidRange(t *testing.T) {
	r := setup(t, &stubStore{})

	for _, q := range []string{
		"start=2024-13-01&end=2024-01-05",
		"start=2024-01-01",
		"end=2024-01-05",
		"start=2024-01-01&end=2024-1-5",
		"",
	} {
		w := do(r, http.MethodGet, "/api/logs?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.JSONEq(t, `{"ok":false,"error":"invalid start/end"}`, w.Body.String(), q)
	}
}

func TestSetLogUpsertAndClear(t *testing.T) {
	store := &stubStore{habits: []model.Habit{{ID: 1, Active: true}}}
	r := setup(t, store)
	d, _ := calendar.ParseDate("2024-01-03")

	w := do(r, http.MethodPost, "/api/logs", `{"habitId":1,"date":"2024-01-03","status":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, model.StatusOK, store.rows[key(1, d)])

	w = do(r, http.MethodPost, "/api/logs", `{"habitId":1,"date":"2024-01-03","status":"partial"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, model.StatusPartial, store.rows[key(1, d)])

	for _, body := range []string{
		`{"habitId":1,"date":"2024-01-03"}`,
		`{"habitId":1,"date":"2024-01-03","status":""}`,
	} {
		w = do(r, http.MethodPost, "/api/logs", body)
		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}
	assert.Empty(t, store.rows)
}

func TestSetLogHabitNotFound(t *testing.T) {
	r := setup(t, &stubStore{habits: []model.Habit{{ID: 1}}})

	w := do(r, http.MethodPost, "/api/logs", `{"habitId":3,"date":"2024-01-01","status":"ok"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"habit not found"}`, w.Body.String())
}

func TestSetLogInvalidStatus(t *testing.T) {
	r := setup(t, &stubStore{habits: []model.Habit{{ID: 1}}})

	w := do(r, http.MethodPost, "/api/logs", `{"habitId":1,"date":"2024-01-01","status":"done"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid status"}`, w.Body.String())
}

func TestSetLogInvalidBody(t *testing.T) {
	r := setup(t, &stubStore{habits: []model.Habit{{ID: 1}}})

	for _, body := range []string{
		`not json`,
		`null`,
		`{}`,
		`{"habitId":0,"date":"2024-01-01"}`,
		`{"habitId":-1,"date":"2024-01-01"}`,
		`{"habitId":1.5,"date":"2024-01-01"}`,
		`{"habitId":"1","date":"2024-01-01"}`,
		`{"habitId":1,"date":"2024-13-01"}`,
		`{"habitId":1}`,
		`{"habitId":1,"date":"2024-01-01","status":5}`,
		`{"habitId":1,"date":"2024-01-01","status":null}`,
	} {
		w := do(r, http.MethodPost, "/api/logs", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"ok":false,"error":"invalid body"}`, w.Body.String(), body)
	}
}

func TestSetLogNullStatusKeepsEntry(t *testing.T) {
	store := &stubStore{habits: []model.Habit{{ID: 1, Active: true}}}
	r := setup(t, store)
	d, _ := calendar.ParseDate("2024-01-03")

	w := do(r, http.MethodPost, "/api/logs", `{"habitId":1,"date":"2024-01-03","status":"no"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/logs", `{"habitId":1,"date":"2024-01-03","status":null}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid body"}`, w.Body.String())
	assert.Equal(t, model.StatusNo, store.rows[key(1, d)])
}

func TestSetLogStorageError(t *testing.T) {
	r := setup(t, &stubStore{err: errors.New("db down")})

	w := do(r, http.MethodPost, "/api/logs", `{"habitId":1,"date":"2024-01-01","status":"ok"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"internal error"}`, w.Body.String())
}

func TestWindowDefault(t *testing.T) {
	r := setup(t, &stubStore{})

	w := do(r, http.MethodGet, "/api/window", "")

	require.Equal(t, http.StatusOK, w.Code)
	// 2024-01-17 is a Wednesday; its week starts 2024-01-15.
	assert.Contains(t, w.Body.String(), `"start":"2023-12-25"`)
	assert.Contains(t, w.Body.String(), `"end":"2024-01-21"`)
	assert.Contains(t, w.Body.String(), `"weekStarts":["2023-12-25","2024-01-01","2024-01-08","2024-01-15"]`)
}

func TestWindowShift(t *testing.T) {
	r := setup(t, &stubStore{})

	w := do(r, http.MethodGet, "/api/window?start=2024-01-01&shift=28", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"start":"2024-01-29"`)
	assert.Contains(t, w.Body.String(), `"end":"2024-02-25"`)
}

func TestWindowInvalid(t *testing.T) {
	r := setup(t, &stubStore{})

	for _, q := range []string{"start=2024-02-30", "shift=four"} {
		w := do(r, http.MethodGet, "/api/window?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.JSONEq(t, `{"ok":false,"error":"invalid start/shift"}`, w.Body.String())
	}
}
