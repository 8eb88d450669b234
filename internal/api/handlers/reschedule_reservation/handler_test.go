package reschedule_reservation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) Reschedule(ctx context.Context, id int64, req *models.RescheduleRequest) (*models.ReservationResponse, error) {
	args := m.Called(id, req)
	if resp, ok := args.Get(0).(*models.ReservationResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(svc ReservationService, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"reservationId": "5"})
	req = req.WithContext(middleware.WithUserID(req.Context(), 900))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewDiscard()).Handle(rec, req)
	return rec
}

func TestHandleReschedules(t *testing.T) {
	newStart := time.Date(2026, 5, 6, 10, 0, 0, 0, time.UTC)

	svc := &serviceMock{}
	svc.On("Reschedule", int64(5), mock.MatchedBy(func(req *models.RescheduleRequest) bool {
		return req.UserID == 900 && req.ReservedAt.Equal(newStart) && req.Fee == 500
	})).Return(&models.ReservationResponse{ID: 5, ReservedAt: newStart}, nil)

	rec := serve(svc, `{"reservedAt":"2026-05-06T10:00:00Z","fee":500}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandleRejectsBadTime(t *testing.T) {
	svc := &serviceMock{}

	assert.Equal(t, http.StatusBadRequest, serve(svc, `{"reservedAt":"2026-05-06 10:00"}`).Code)
	svc.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything)
}

func TestHandleMapsRescheduleErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{reservations.ErrReservationNotFound, http.StatusNotFound},
		{reservations.ErrAccessDenied, http.StatusForbidden},
		{reservations.ErrInvalidTransition, http.StatusConflict},
		{reservations.ErrSlotConflict, http.StatusConflict},
		{reservations.ErrInvalidDate, http.StatusBadRequest},
		{reservations.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &serviceMock{}
			svc.On("Reschedule", int64(5), mock.Anything).Return(nil, tt.err)

			assert.Equal(t, tt.status, serve(svc, `{"reservedAt":"2026-05-06T10:00:00Z"}`).Code)
		})
	}
}
