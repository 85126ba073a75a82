package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/scheduling-engine/internal/db"
)

// fullDayTemplate is the universe of slot labels a doctor can offer.
var fullDayTemplate = []string{
	"08:00-09:00",
	"09:00-10:00",
	"10:00-11:00",
	"11:00-12:00",
	"13:00-14:00",
	"14:00-15:00",
	"15:00-16:00",
	"16:00-17:00",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := ensureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 3000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("ensuring schema")

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS doctors (
			id            uuid PRIMARY KEY,
			name          text NOT NULL,
			specialty     text,
			slot_template text[] NOT NULL,
			created_at    timestamptz NOT NULL DEFAULT now(),
			updated_at    timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS patients (
			id         uuid PRIMARY KEY,
			name       text NOT NULL,
			email      text,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS appointments (
			id         uuid PRIMARY KEY,
			doctor_id  uuid NOT NULL REFERENCES doctors(id),
			patient_id uuid NOT NULL REFERENCES patients(id),
			date       date NOT NULL,
			time_slot  text NOT NULL,
			reason     text NOT NULL,
			notes      text NOT NULL DEFAULT '',
			status     text NOT NULL DEFAULT 'pending',
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		-- The uniqueness invariant: one non-cancelled appointment per
		-- (doctor, date, slot). Concurrent bookings serialize here.
		CREATE UNIQUE INDEX IF NOT EXISTS appointments_slot_claim
			ON appointments (doctor_id, date, time_slot)
			WHERE status <> 'cancelled';

		CREATE INDEX IF NOT EXISTS appointments_by_patient
			ON appointments (patient_id, date);

		CREATE TABLE IF NOT EXISTS examinations (
			id                   uuid PRIMARY KEY,
			appointment_id       uuid NOT NULL UNIQUE REFERENCES appointments(id),
			symptoms             text NOT NULL DEFAULT '',
			diagnosis            text NOT NULL DEFAULT '',
			paraclinical_results text,
			created_at           timestamptz NOT NULL DEFAULT now(),
			updated_at           timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS payments (
			id             uuid PRIMARY KEY,
			appointment_id uuid NOT NULL UNIQUE REFERENCES appointments(id),
			amount_cents   bigint NOT NULL DEFAULT 0,
			status         text NOT NULL DEFAULT 'pending',
			created_at     timestamptz NOT NULL DEFAULT now(),
			updated_at     timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS event_logs (
			id             bigserial PRIMARY KEY,
			event_type     text NOT NULL,
			appointment_id uuid,
			payload        jsonb,
			created_at     timestamptz NOT NULL DEFAULT now()
		);
	`)
	return err
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		// Each doctor offers a contiguous run of the full-day template.
		first := gofakeit.Number(0, 2)
		last := gofakeit.Number(len(fullDayTemplate)-3, len(fullDayTemplate)-1)
		template := fullDayTemplate[first : last+1]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, slot_template, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, spec, template)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
