package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/jiu-academy-api/internal/service"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestMetricsHandlerHealth(t *testing.T) {
	r := newTestRouter(nil)
	r.GET("/ok", NewMetricsHandler(nil, fakePinger{}).Health)
	r.GET("/down", NewMetricsHandler(nil, fakePinger{err: errors.New("conn refused")}).Health)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ok", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/down", "").Code)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordAttendance("present")

	r := newTestRouter(nil)
	r.GET("/metrics", NewMetricsHandler(metrics, nil).Prometheus)
	rec := perform(r, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "attendance_recorded_total")
}
