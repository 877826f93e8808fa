package models

import "time"

// Kanban pipeline statuses for a lead.
const (
	LeadStatusNew       = "novo"
	LeadStatusContacted = "em_contato"
	LeadStatusScheduled = "consulta_agendada"
	LeadStatusConverted = "convertido"
	LeadStatusLost      = "perdido"
)

var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusScheduled,
	LeadStatusConverted,
	LeadStatusLost,
}

type Lead struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	Status    string    `json:"status"`
	Position  int       `json:"position"`
	Objective *string   `json:"objective"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ObjetivoTag struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type LeadWithTags struct {
	Lead
	Tags []ObjetivoTag `json:"tags"`
}
