package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

type apiEnv struct {
	router   http.Handler
	repo     *scheduling.MemoryRepository
	exams    *scheduling.MemoryExaminationGateway
	payments *scheduling.MemoryPaymentGateway
	doctor   scheduling.Doctor
	patient  scheduling.Patient
	date     string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	repo := scheduling.NewMemoryRepository()
	exams := scheduling.NewMemoryExaminationGateway()
	payments := scheduling.NewMemoryPaymentGateway()
	svc := scheduling.NewService(repo, exams, payments, redisclient.NewLocalLocker(), zap.NewNop())

	doctor := scheduling.Doctor{
		ID:           uuid.New(),
		Name:         "Dr. Osei",
		SlotTemplate: []string{"08:00-09:00", "09:00-10:00"},
	}
	patient := scheduling.Patient{ID: uuid.New(), Name: "June Ito"}
	repo.AddDoctor(doctor)
	repo.AddPatient(patient)

	router := NewRouter(RouterConfig{
		Service: svc,
		Logger:  zap.NewNop(),
		Env:     "test",
		Version: "test",
	})

	return &apiEnv{
		router:   router,
		repo:     repo,
		exams:    exams,
		payments: payments,
		doctor:   doctor,
		patient:  patient,
		date:     time.Now().AddDate(0, 0, 7).Format(scheduling.DateLayout),
	}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) createBody() map[string]string {
	return map[string]string{
		"doctor_id":  e.doctor.ID.String(),
		"patient_id": e.patient.ID.String(),
		"date":       e.date,
		"time_slot":  "08:00-09:00",
		"reason":     "headaches",
		"notes":      "recurring",
	}
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeJSON[AppointmentResponse](t, rec)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, e.date, resp.Date)
	assert.Equal(t, "08:00-09:00", resp.TimeSlot)
}

func TestCreateAppointmentMissingReason(t *testing.T) {
	e := newAPIEnv(t)

	body := e.createBody()
	body["reason"] = ""

	rec := e.do(t, http.MethodPost, "/appointments", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_request", resp.Error)
	assert.Equal(t, "Reason", resp.Field)
}

func TestCreateAppointmentBadDate(t *testing.T) {
	e := newAPIEnv(t)

	body := e.createBody()
	body["date"] = "01-06-2025"

	rec := e.do(t, http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointmentSlotConflict(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "slot_conflict", resp.Error)
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	e := newAPIEnv(t)

	body := e.createBody()
	body["doctor_id"] = uuid.NewString()

	rec := e.do(t, http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailableSlotsEndpoint(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	url := fmt.Sprintf("/appointments/available_slots?doctor_id=%s&date=%s", e.doctor.ID, e.date)
	rec = e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[AvailableSlotsResponse](t, rec)
	assert.Equal(t, []string{"09:00-10:00"}, resp.AvailableSlots)
}

func TestAvailableSlotsPastDate(t *testing.T) {
	e := newAPIEnv(t)

	past := time.Now().AddDate(0, 0, -1).Format(scheduling.DateLayout)
	url := fmt.Sprintf("/appointments/available_slots?doctor_id=%s&date=%s", e.doctor.ID, past)

	rec := e.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "date", resp.Field)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[AppointmentResponse](t, rec)

	// Wrong role first: nurses cannot confirm.
	rec = e.do(t, http.MethodPatch, "/appointments/"+created.ID.String()+"/status", map[string]string{
		"requested_by_role": "nurse",
		"status":            "confirmed",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	errResp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_transition", errResp.Error)
	assert.Equal(t, "pending", errResp.CurrentStatus)
	assert.Equal(t, "confirmed", errResp.RequestedStatus)

	rec = e.do(t, http.MethodPatch, "/appointments/"+created.ID.String()+"/status", map[string]string{
		"requested_by_role": "staff",
		"status":            "confirmed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeJSON[AppointmentResponse](t, rec)
	assert.Equal(t, "confirmed", resp.Status)
}

func TestUpdateStatusPaymentGate(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[AppointmentResponse](t, rec)

	patch := func(role, status string) *httptest.ResponseRecorder {
		return e.do(t, http.MethodPatch, "/appointments/"+created.ID.String()+"/status", map[string]string{
			"requested_by_role": role,
			"status":            status,
		})
	}

	require.Equal(t, http.StatusOK, patch("staff", "confirmed").Code)
	require.Equal(t, http.StatusOK, patch("doctor", "examining").Code)

	e.exams.Start(created.ID)
	require.Equal(t, http.StatusOK, patch("doctor", "awaiting_clinical_results").Code)

	e.exams.AttachResults(created.ID)
	require.Equal(t, http.StatusOK, patch("nurse", "paraclinical_results_available").Code)

	rec = patch("staff", "completed")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "payment_not_settled", decodeJSON[ErrorResponse](t, rec).Error)

	e.payments.SetStatus(created.ID, scheduling.PaymentCompleted)
	rec = patch("staff", "completed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decodeJSON[AppointmentResponse](t, rec).Status)
}

func TestUpdateStatusBadRole(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPatch, "/appointments/"+uuid.NewString()+"/status", map[string]string{
		"requested_by_role": "janitor",
		"status":            "confirmed",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndListAppointments(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/appointments", e.createBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[AppointmentResponse](t, rec)

	rec = e.do(t, http.MethodGet, "/appointments/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decodeJSON[AppointmentDetailResponse](t, rec)
	assert.Equal(t, e.doctor.Name, detail.DoctorName)
	assert.Equal(t, e.patient.Name, detail.PatientName)

	rec = e.do(t, http.MethodGet, "/appointments?patient_id="+e.patient.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeJSON[[]AppointmentDetailResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestGetAppointmentNotFound(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
