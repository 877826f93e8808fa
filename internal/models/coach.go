package models

import "time"

const (
	CategoryBehavioral = "behavioral"
	CategoryWellBeing  = "well_being"
	CategoryCustom     = "custom"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Questionnaire definitions are retired, never deleted, so historical
// responses stay attributable.
const (
	QuestionnaireActive  = "active"
	QuestionnaireRetired = "retired"
)

type Questionnaire struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	Frequency    string    `json:"frequency"`
	SendTime     *string   `json:"send_time"`
	DayOfWeek    *int      `json:"day_of_week"`
	DayOfMonth   *int      `json:"day_of_month"`
	Status       string    `json:"status"`
	PatientPhone *string   `json:"patient_phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuestionnaireResponse echoes the question text at response time so later
// edits to the definition do not corrupt history. Append-only.
type QuestionnaireResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	QuestionnaireID *int64    `json:"questionnaire_id"`
	PatientPhone    string    `json:"patient_phone"`
	PatientName     string    `json:"patient_name"`
	Category        string    `json:"category"`
	QuestionText    string    `json:"question_text"`
	Answer          string    `json:"answer"`
	Score           int       `json:"score"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	ActionSendQuestionnaire     = "send_questionnaire"
	ActionGenerateQuestionnaire = "generate_questionnaire"
	ActionGenerateMotivational  = "generate_motivational"
	ActionGenerateReminder      = "generate_reminder"
	ActionAnalyzeResponses      = "analyze_responses"
)

const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// CoachInteraction is one AI-produced message plus the context snapshot used
// to produce it. Append-only; doubles as the audit log and as the history fed
// back into future personalization.
type CoachInteraction struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	PatientPhone   string         `json:"patient_phone"`
	PatientName    string         `json:"patient_name"`
	ActionType     string         `json:"action_type"`
	Content        string         `json:"content"`
	Context        map[string]any `json:"context"`
	DeliveryStatus string         `json:"delivery_status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ScheduledSending is the per-patient opt-in row in envios_programados.
// At most one row per patient.
type ScheduledSending struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	PatientID     int64     `json:"patient_id"`
	DailyEnabled  bool      `json:"daily_enabled"`
	WeeklyEnabled bool      `json:"weekly_enabled"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PatientInsights aggregates a patient's questionnaire responses without
// calling the LLM.
type PatientInsights struct {
	PatientPhone     string             `json:"patient_phone"`
	ResponseCount    int                `json:"response_count"`
	AverageScore     float64            `json:"average_score"`
	CategoryAverages map[string]float64 `json:"category_averages"`
	LastResponseAt   *time.Time         `json:"last_response_at"`
}
