package models

import "time"

const (
	SenderUser    = "user"
	SenderContact = "contact"
)

const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeAudio    = "audio"
	ContentTypeVideo    = "video"
	ContentTypeDocument = "document"
)

// Conversation is one thread between the practice owner and an external
// contact. last_message and last_message_time are denormalized from the
// newest message.
type Conversation struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	ContactPhone    string     `json:"contact_phone"`
	ContactName     *string    `json:"contact_name"`
	LastMessage     *string    `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
	UnreadCount     int        `json:"unread_count"`
	Archived        bool       `json:"archived"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Message is immutable once created except for the read flag.
// ProviderMessageID is the provider-assigned id used for idempotent upserts.
type Message struct {
	ID                int64     `json:"id"`
	ConversationID    int64     `json:"conversation_id"`
	ProviderMessageID *string   `json:"provider_message_id"`
	Sender            string    `json:"sender"`
	Content           string    `json:"content"`
	ContentType       string    `json:"content_type"`
	IsRead            bool      `json:"is_read"`
	Timestamp         time.Time `json:"timestamp"`
	CreatedAt         time.Time `json:"created_at"`
}

const (
	ProviderEvolution = "evolution"
	ProviderMaytapi   = "maytapi"
	ProviderTwilio    = "twilio"
)

// Session is a per-user WhatsApp provider session. Inbound webhooks resolve
// their owning user through the instance name or connected phone number.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Provider     string    `json:"provider"`
	InstanceName string    `json:"instance_name"`
	Phone        *string   `json:"phone"`
	IsConnected  bool      `json:"is_connected"`
	QRCode       *string   `json:"qr_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TwilioNumber is a number purchased by a user; Twilio webhooks resolve
// ownership by the receiving number instead of a session instance.
type TwilioNumber struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	SID         string    `json:"sid"`
	CreatedAt   time.Time `json:"created_at"`
}
