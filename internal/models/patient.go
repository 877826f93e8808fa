package models

import "time"

// Patient is a converted lead. Stored in the pacientes table.
type Patient struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	LeadID    *int64     `json:"lead_id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     *string    `json:"email"`
	BirthDate *time.Time `json:"birth_date"`
	Objective *string    `json:"objective"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const (
	ConsultationStatusScheduled = "agendada"
	ConsultationStatusConfirmed = "confirmada"
	ConsultationStatusDone      = "realizada"
	ConsultationStatusCanceled  = "cancelada"
)

type Consultation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	PatientID       int64     `json:"patient_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PerformedConsultation records a consultation that actually happened,
// optionally linked back to its scheduled entry. Stored in consultas_realizadas.
type PerformedConsultation struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	PatientID      int64     `json:"patient_id"`
	ConsultationID *int64    `json:"consultation_id"`
	PerformedAt    time.Time `json:"performed_at"`
	Summary        *string   `json:"summary"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConsultationFile is attachment metadata for a performed consultation.
// The file itself lives in object storage; stored in consulta_arquivos.
type ConsultationFile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	PerformedID int64     `json:"consulta_realizada_id"`
	FileName    string    `json:"file_name"`
	FileURL     string    `json:"file_url"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
