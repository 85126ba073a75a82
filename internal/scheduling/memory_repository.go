package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository with the same atomicity
// contract as the Postgres implementation: conditional insert and
// compare-and-swap run under one mutex. It backs tests and redis-less local
// runs; production uses PgRepository.
type MemoryRepository struct {
	mu           sync.Mutex
	doctors      map[uuid.UUID]Doctor
	patients     map[uuid.UUID]Patient
	appointments map[uuid.UUID]Appointment
	events       []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		doctors:      make(map[uuid.UUID]Doctor),
		patients:     make(map[uuid.UUID]Patient),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

func (r *MemoryRepository) AddDoctor(d Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[d.ID] = d
}

func (r *MemoryRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

func (r *MemoryRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (r *MemoryRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) ClaimedSlots(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var slots []string
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status != StatusCancelled {
			slots = append(slots, a.TimeSlot)
		}
	}
	return slots, nil
}

func (r *MemoryRepository) CreatePendingAppointment(_ context.Context, in NewAppointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.DoctorID == in.DoctorID && a.Date.Equal(in.Date) && a.TimeSlot == in.TimeSlot && a.Status != StatusCancelled {
			return nil, ErrSlotConflict
		}
	}

	now := time.Now()
	appt := Appointment{
		ID:        uuid.New(),
		DoctorID:  in.DoctorID,
		PatientID: in.PatientID,
		Date:      in.Date,
		TimeSlot:  in.TimeSlot,
		Reason:    in.Reason,
		Notes:     in.Notes,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.appointments[appt.ID] = appt

	return &appt, nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doctor, err := r.GetDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := r.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{Appointment: *appt, Doctor: doctor, Patient: patient}, nil
}

func (r *MemoryRepository) ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, error) {
	r.mu.Lock()
	var matched []Appointment
	for _, a := range r.appointments {
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.Date != nil && !a.Date.Equal(DayOf(*f.Date)) {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		matched = append(matched, a)
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		if matched[i].TimeSlot != matched[j].TimeSlot {
			return matched[i].TimeSlot < matched[j].TimeSlot
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}

	result := make([]AppointmentDetail, 0, len(matched))
	for _, a := range matched {
		detail, err := r.GetAppointmentDetail(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *detail)
	}
	return result, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.UpdatedAt = time.Now()
	r.appointments[id] = a

	return &a, nil
}

func (r *MemoryRepository) FindLapsedPending(_ context.Context, day time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.Status == StatusPending && a.Date.Before(day) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}

// MemoryExaminationGateway records which appointments have an examination and
// whether results are attached.
type MemoryExaminationGateway struct {
	mu       sync.Mutex
	attached map[uuid.UUID]bool // present => examination exists; value => results attached
}

func NewMemoryExaminationGateway() *MemoryExaminationGateway {
	return &MemoryExaminationGateway{attached: make(map[uuid.UUID]bool)}
}

func (g *MemoryExaminationGateway) Start(appointmentID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.attached[appointmentID]; !ok {
		g.attached[appointmentID] = false
	}
}

func (g *MemoryExaminationGateway) AttachResults(appointmentID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attached[appointmentID] = true
}

func (g *MemoryExaminationGateway) Exists(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.attached[appointmentID]
	return ok, nil
}

func (g *MemoryExaminationGateway) ResultsAttached(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attached[appointmentID], nil
}

// MemoryPaymentGateway holds payment states keyed by appointment.
type MemoryPaymentGateway struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]PaymentStatus
}

func NewMemoryPaymentGateway() *MemoryPaymentGateway {
	return &MemoryPaymentGateway{statuses: make(map[uuid.UUID]PaymentStatus)}
}

func (g *MemoryPaymentGateway) SetStatus(appointmentID uuid.UUID, status PaymentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[appointmentID] = status
}

func (g *MemoryPaymentGateway) Status(_ context.Context, appointmentID uuid.UUID) (PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.statuses[appointmentID]; ok {
		return s, nil
	}
	return PaymentPending, nil
}
