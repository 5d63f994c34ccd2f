package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Booking contention check: fire N concurrent requests at the same
// (doctor, date, time) slot and verify exactly one wins. Everything else
// must come back 409.

type simConfig struct {
	baseURL   string
	token     string
	patientID string
	doctorID  string
	date      string
	slot      string
	workers   int
}

type bookingRequest struct {
	PatientID      string `json:"patient_id"`
	DoctorID       string `json:"doctor_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Type           string `json:"type"`
	ReasonForVisit string `json:"reason_for_visit"`
}

type outcome struct {
	created   int64
	conflicts int64
	errors    int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{}
	flag.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "API base URL")
	flag.StringVar(&cfg.patientID, "patient", "", "patient UUID to book for")
	flag.StringVar(&cfg.doctorID, "doctor", "", "doctor UUID to contend on")
	flag.StringVar(&cfg.date, "date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "appointment date (YYYY-MM-DD)")
	flag.StringVar(&cfg.slot, "time", "10:00", "appointment time (HH:MM)")
	flag.IntVar(&cfg.workers, "workers", 20, "concurrent booking attempts")
	flag.Parse()

	cfg.token = os.Getenv("FRONTDESK_TOKEN")
	if cfg.token == "" {
		log.Fatal("FRONTDESK_TOKEN is required (login first and export the token)")
	}
	if cfg.patientID == "" || cfg.doctorID == "" {
		log.Fatal("-patient and -doctor are required")
	}

	log.Printf("contending %d workers on doctor=%s %s %s", cfg.workers, cfg.doctorID, cfg.date, cfg.slot)

	client := &http.Client{Timeout: 10 * time.Second}
	var out outcome
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			attemptBooking(client, cfg, &out)
		}()
	}

	began := time.Now()
	close(start)
	wg.Wait()

	log.Printf("done in %s: created=%d conflicts=%d errors=%d",
		time.Since(began), out.created, out.conflicts, out.errors)

	if out.created != 1 {
		log.Fatalf("FAIL: expected exactly 1 successful booking, got %d", out.created)
	}
	if out.errors != 0 {
		log.Fatalf("FAIL: %d attempts returned unexpected errors", out.errors)
	}
	log.Println("PASS: slot held exactly one booking under contention")
}

func attemptBooking(client *http.Client, cfg simConfig, out *outcome) {
	body, err := json.Marshal(bookingRequest{
		PatientID:      cfg.patientID,
		DoctorID:       cfg.doctorID,
		Date:           cfg.date,
		Time:           cfg.slot,
		Type:           "routine",
		ReasonForVisit: "contention check",
	})
	if err != nil {
		atomic.AddInt64(&out.errors, 1)
		return
	}

	req, err := http.NewRequest(http.MethodPost, cfg.baseURL+"/api/v1/appointments", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&out.errors, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.token)

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&out.errors, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&out.created, 1)
	case http.StatusConflict:
		atomic.AddInt64(&out.conflicts, 1)
	default:
		raw, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "unexpected status %d: %s\n", resp.StatusCode, raw)
		atomic.AddInt64(&out.errors, 1)
	}
}
