package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicops/frontdesk/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedStaff(context.Background(), pool); err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 20); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding front-desk staff account")

	hash, err := bcrypt.GenerateFromPassword([]byte("frontdesk123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	userID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name, email, phone_number, password_hash, role, is_active)
		VALUES ($1, 'frontdesk', 'Front', 'Desk', 'frontdesk@clinic.local', '9999900000', $2, 'staff', TRUE)
		ON CONFLICT ON CONSTRAINT uq_users_username DO NOTHING
	`, userID, string(hash))
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO staff_profiles (id, user_id, employee_id, shift, department)
		SELECT $1, id, 'EMP0001', 'morning', 'Reception' FROM users WHERE username = 'frontdesk'
		ON CONFLICT ON CONSTRAINT uq_staff_user DO NOTHING
	`, uuid.New())
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
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
	genders := []string{"M", "F"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (
				id, doctor_id, full_name, specialization, gender, phone_number, email,
				clinic_location, consultation_fee, accepts_walkins, license_number,
				years_of_experience, qualifications
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			id,
			fmt.Sprintf("DOC%04d", i+1),
			"Dr. "+gofakeit.Name(),
			spec,
			genders[gofakeit.Number(0, 1)],
			gofakeit.Phone(),
			gofakeit.Email(),
			fmt.Sprintf("Room %d", gofakeit.Number(101, 310)),
			int64(gofakeit.Number(300, 1500)),
			gofakeit.Bool(),
			fmt.Sprintf("LIC-%06d", gofakeit.Number(100000, 999999)),
			gofakeit.Number(1, 30),
			"MBBS, MD",
		)
		if err != nil {
			return err
		}

		// Weekday template: mornings Monday through Saturday.
		for day := 0; day < 6; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO weekly_schedules (id, doctor_id, day_of_week, start_time, end_time, slot_duration)
				VALUES ($1, $2, $3, '09:00', '13:00', 30)
			`, uuid.New(), id, day)
			if err != nil {
				return err
			}
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

	const batchSize = 100
	bloodGroups := []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	genders := []string{"M", "F"}
	seq := 0

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
			seq++
			dob := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC),
			)

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (
					id, patient_id, first_name, last_name, date_of_birth, gender,
					blood_group, phone_number, email, address_line1, city, state, pincode,
					emergency_contact_name, emergency_contact_phone, emergency_contact_relation
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			`,
				uuid.New(),
				fmt.Sprintf("PAT%05d", seq),
				gofakeit.FirstName(),
				gofakeit.LastName(),
				dob,
				genders[gofakeit.Number(0, 1)],
				bloodGroups[gofakeit.Number(0, len(bloodGroups)-1)],
				gofakeit.Phone(),
				gofakeit.Email(),
				gofakeit.Street(),
				gofakeit.City(),
				gofakeit.State(),
				gofakeit.Zip(),
				gofakeit.Name(),
				gofakeit.Phone(),
				"spouse",
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("patients seeded")
	return nil
}
