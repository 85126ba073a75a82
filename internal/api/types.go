package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	PatientID string `json:"patient_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot  string `json:"time_slot" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
	Notes     string `json:"notes"`
}

type UpdateStatusRequest struct {
	RequestedByRole string `json:"requested_by_role" validate:"required,oneof=patient doctor nurse staff admin"`
	Status          string `json:"status" validate:"required"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Date      string    `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	Reason    string    `json:"reason"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	DoctorName  string `json:"doctor_name"`
	PatientName string `json:"patient_name"`
}

type AvailableSlotsResponse struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"available_slots"`
}

type ErrorResponse struct {
	Error           string `json:"error"`
	Details         string `json:"details,omitempty"`
	Field           string `json:"field,omitempty"`
	CurrentStatus   string `json:"current_status,omitempty"`
	RequestedStatus string `json:"requested_status,omitempty"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Date:      a.Date.Format(scheduling.DateLayout),
		TimeSlot:  a.TimeSlot,
		Reason:    a.Reason,
		Notes:     a.Notes,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAppointmentDetailResponse(d *scheduling.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
	}
	if d.Doctor != nil {
		resp.DoctorName = d.Doctor.Name
	}
	if d.Patient != nil {
		resp.PatientName = d.Patient.Name
	}
	return resp
}
