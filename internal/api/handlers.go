package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

var validate = validator.New()

func availableSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(r.URL.Query().Get("doctor_id"))
		if err != nil {
			writeFieldError(w, "doctor_id", "must be a valid UUID")
			return
		}

		date, err := time.Parse(scheduling.DateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeFieldError(w, "date", "must be formatted as YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), doctorID, date)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		if slots == nil {
			slots = []string{}
		}

		writeJSON(w, http.StatusOK, AvailableSlotsResponse{
			DoctorID:       doctorID,
			Date:           date.Format(scheduling.DateLayout),
			AvailableSlots: slots,
		})
	}
}

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err)
			return
		}

		doctorID, _ := uuid.Parse(req.DoctorID)
		patientID, _ := uuid.Parse(req.PatientID)
		date, _ := time.Parse(scheduling.DateLayout, req.Date)

		appt, err := svc.BookAppointment(r.Context(), scheduling.BookingRequest{
			DoctorID:  doctorID,
			PatientID: patientID,
			Date:      date,
			TimeSlot:  req.TimeSlot,
			Reason:    req.Reason,
			Notes:     req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateStatusHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFieldError(w, "id", "must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err)
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, scheduling.Role(req.RequestedByRole), scheduling.Status(req.Status))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFieldError(w, "id", "must be a valid UUID")
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var f scheduling.ListFilter

		if v := q.Get("doctor_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeFieldError(w, "doctor_id", "must be a valid UUID")
				return
			}
			f.DoctorID = &id
		}
		if v := q.Get("patient_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeFieldError(w, "patient_id", "must be a valid UUID")
				return
			}
			f.PatientID = &id
		}
		if v := q.Get("date"); v != "" {
			date, err := time.Parse(scheduling.DateLayout, v)
			if err != nil {
				writeFieldError(w, "date", "must be formatted as YYYY-MM-DD")
				return
			}
			f.Date = &date
		}
		if v := q.Get("status"); v != "" {
			status := scheduling.Status(v)
			f.Status = &status
		}
		f.Limit, _ = strconv.Atoi(q.Get("limit"))
		f.Offset, _ = strconv.Atoi(q.Get("offset"))

		details, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		result := make([]AppointmentDetailResponse, 0, len(details))
		for i := range details {
			result = append(result, toAppointmentDetailResponse(&details[i]))
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func writeFieldError(w http.ResponseWriter, field, reason string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Details: reason,
		Field:   field,
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Details: "failed validation on tag " + first.Tag(),
			Field:   first.Field(),
		})
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	var vErr *scheduling.ValidationError
	var tErr *scheduling.TransitionError

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Details: vErr.Reason,
			Field:   vErr.Field,
		})
	case errors.As(err, &tErr):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:           "invalid_transition",
			Details:         tErr.Error(),
			CurrentStatus:   string(tErr.From),
			RequestedStatus: string(tErr.To),
		})
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "time slot was claimed by a competing booking, re-read availability and retry")
	case errors.Is(err, scheduling.ErrStaleStatus):
		writeError(w, http.StatusConflict, "stale_status", "appointment changed concurrently, refetch and retry")
	case errors.Is(err, scheduling.ErrPaymentNotSettled):
		writeError(w, http.StatusConflict, "payment_not_settled", err.Error())
	case errors.Is(err, scheduling.ErrExaminationNotStarted):
		writeError(w, http.StatusConflict, "examination_not_started", err.Error())
	case errors.Is(err, scheduling.ErrResultsNotAttached):
		writeError(w, http.StatusConflict, "results_not_attached", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
