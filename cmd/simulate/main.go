package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/scheduling-engine/internal/config"
	"github.com/clinicdesk/scheduling-engine/internal/db"
	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ConfirmRatio float64
	ReadRatio    float64
	PatientLimit int
	DoctorLimit  int
	DayCount     int // how many future days bookings target
	PostgresDSN  string
}

type target struct {
	DoctorID uuid.UUID
	Date     string
	Slot     string
}

type DataPool struct {
	Patients []uuid.UUID
	Targets  []target

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rand.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50 = latencies[len(latencies)*50/100]
	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Booking      OperationMetrics
	Confirm      OperationMetrics
	Availability OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f confirm=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.ConfirmRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d patients, %d booking targets", len(dataPool.Patients), len(dataPool.Targets))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	// The invariant check is the point of the exercise: after arbitrary
	// contention, no (doctor, date, slot) tuple may hold two live bookings.
	if err := verifyUniqueness(context.Background(), pgPool); err != nil {
		log.Fatalf("uniqueness check FAILED: %v", err)
	}
	log.Println("uniqueness check passed")
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio: getFloat("SIM_CONFIRM_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 2000),
		DoctorLimit:  getInt("SIM_DOCTOR_LIMIT", 5),
		DayCount:     getInt("SIM_DAY_COUNT", 3),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool picks a deliberately small set of doctors and expands their
// slot templates over the next few days, so workers pile onto the same
// tuples and conflicts actually happen.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docRows, err := pool.Query(ctx, `SELECT id, slot_template FROM doctors LIMIT $1`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer docRows.Close()

	today := scheduling.DayOf(time.Now())
	for docRows.Next() {
		var id uuid.UUID
		var template []string
		if err := docRows.Scan(&id, &template); err != nil {
			return nil, err
		}
		for day := 0; day < cfg.DayCount; day++ {
			date := today.AddDate(0, 0, day+1).Format(scheduling.DateLayout)
			for _, slot := range template {
				dataPool.Targets = append(dataPool.Targets, target{DoctorID: id, Date: date, Slot: slot})
			}
		}
	}

	return dataPool, docRows.Err()
}

func (s *Simulator) Run() {
	log.Printf("running %d workers for %s", s.config.Workers, s.config.Duration)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()
}

func (s *Simulator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rand.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx)
		case r < s.config.BookingRatio+s.config.ConfirmRatio:
			s.doConfirm(ctx)
		default:
			s.doAvailability(ctx)
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context) {
	if len(s.pool.Patients) == 0 || len(s.pool.Targets) == 0 {
		return
	}

	t := s.pool.Targets[rand.Intn(len(s.pool.Targets))]
	patient := s.pool.Patients[rand.Intn(len(s.pool.Patients))]

	body, _ := json.Marshal(map[string]string{
		"doctor_id":  t.DoctorID.String(),
		"patient_id": patient.String(),
		"date":       t.Date,
		"time_slot":  t.Slot,
		"reason":     "load-test booking",
		"notes":      "",
	})

	start := time.Now()
	resp, err := s.post(ctx, "/appointments", body)
	latency := time.Since(start)

	if err != nil {
		s.metrics.Booking.Record(latency, false, false)
		return
	}
	defer drainAndClose(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
			s.pool.AddAppointment(created.ID)
		}
		s.metrics.Booking.Record(latency, true, false)
	case http.StatusConflict:
		s.metrics.Booking.Record(latency, false, true)
	default:
		s.metrics.Booking.Record(latency, false, false)
	}
}

func (s *Simulator) doConfirm(ctx context.Context) {
	id, ok := s.pool.RandomAppointment()
	if !ok {
		return
	}

	body, _ := json.Marshal(map[string]string{
		"requested_by_role": "staff",
		"status":            "confirmed",
	})

	start := time.Now()
	resp, err := s.patch(ctx, "/appointments/"+id.String()+"/status", body)
	latency := time.Since(start)

	if err != nil {
		s.metrics.Confirm.Record(latency, false, false)
		return
	}
	defer drainAndClose(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		s.metrics.Confirm.Record(latency, true, false)
	case http.StatusConflict:
		// Already confirmed by another worker, or a lost CAS race.
		s.metrics.Confirm.Record(latency, false, true)
	default:
		s.metrics.Confirm.Record(latency, false, false)
	}
}

func (s *Simulator) doAvailability(ctx context.Context) {
	if len(s.pool.Targets) == 0 {
		return
	}
	t := s.pool.Targets[rand.Intn(len(s.pool.Targets))]

	url := fmt.Sprintf("%s/appointments/available_slots?doctor_id=%s&date=%s",
		s.config.APIBaseURL, t.DoctorID, t.Date)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.metrics.Availability.Record(latency, false, false)
		return
	}
	defer drainAndClose(resp)

	s.metrics.Availability.Record(latency, resp.StatusCode == http.StatusOK, false)
}

func (s *Simulator) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.client.Do(req)
}

func (s *Simulator) patch(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.config.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.client.Do(req)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println("=== simulation report ===")
	printOp("booking", &s.metrics.Booking)
	printOp("confirm", &s.metrics.Confirm)
	printOp("availability", &s.metrics.Availability)
}

func printOp(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		fmt.Printf("%-14s no operations\n", name)
		return
	}

	avg, min, max, p50, p95 := om.Stats()
	fmt.Printf("%-14s total=%d success=%d conflict=%d error=%d\n",
		name, total,
		atomic.LoadInt64(&om.Success),
		atomic.LoadInt64(&om.Conflict),
		atomic.LoadInt64(&om.Error),
	)
	fmt.Printf("%-14s latency avg=%s min=%s max=%s p50=%s p95=%s\n",
		"", avg, min, max, p50, p95)
}

func verifyUniqueness(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `
		SELECT doctor_id, date, time_slot, count(*)
		FROM appointments
		WHERE status <> 'cancelled'
		GROUP BY doctor_id, date, time_slot
		HAVING count(*) > 1
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var violations int
	for rows.Next() {
		var doctorID uuid.UUID
		var date time.Time
		var slot string
		var n int
		if err := rows.Scan(&doctorID, &date, &slot, &n); err != nil {
			return err
		}
		violations++
		log.Printf("violation: doctor=%s date=%s slot=%s count=%d",
			doctorID, date.Format(scheduling.DateLayout), slot, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if violations > 0 {
		return fmt.Errorf("%d double-booked tuples", violations)
	}
	return nil
}

// env helpers, shared shape with internal/config

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
