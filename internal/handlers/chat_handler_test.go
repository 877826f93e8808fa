package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/realtime"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type stubChatService struct {
	conversationsResult []models.Conversation
	conversationsErr    error
	messagesResult      []models.Message
	messagesTotal       int
	messagesErr         error
	sendResult          *models.Message
	sendErr             error
	markReadErr         error
	lastUserID          int64
	lastConversationID  int64
	lastPage            int
	lastLimit           int
	lastContent         string
	lastArchivedFlag    bool
	lastIncludeArchived bool
}

func (s *stubChatService) ListConversations(_ context.Context, userID int64, includeArchived bool) ([]models.Conversation, error) {
	s.lastUserID = userID
	s.lastIncludeArchived = includeArchived
	return s.conversationsResult, s.conversationsErr
}

func (s *stubChatService) ListMessages(_ context.Context, userID int64, conversationID int64, page int, limit int) ([]models.Message, int, error) {
	s.lastUserID = userID
	s.lastConversationID = conversationID
	s.lastPage = page
	s.lastLimit = limit
	return s.messagesResult, s.messagesTotal, s.messagesErr
}

func (s *stubChatService) SendMessage(_ context.Context, userID int64, conversationID int64, content string) (*models.Message, error) {
	s.lastUserID = userID
	s.lastConversationID = conversationID
	s.lastContent = content
	return s.sendResult, s.sendErr
}

func (s *stubChatService) MarkRead(_ context.Context, userID, conversationID int64) error {
	s.lastUserID = userID
	s.lastConversationID = conversationID
	return s.markReadErr
}

func (s *stubChatService) SetArchived(_ context.Context, userID, conversationID int64, archived bool) error {
	s.lastUserID = userID
	s.lastConversationID = conversationID
	s.lastArchivedFlag = archived
	return nil
}

func newChatTestApp(service *stubChatService) *fiber.App {
	handler := NewChatHandler(service, realtime.NewHub(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		c.Locals("role", "nutritionist")
		return c.Next()
	})
	app.Get("/api/v1/conversations", handler.ListConversations)
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)
	app.Post("/api/v1/conversations/:id/messages", handler.SendMessage)
	app.Put("/api/v1/conversations/:id/read", handler.MarkRead)
	app.Put("/api/v1/conversations/:id/archive", handler.SetArchived)
	return app
}

func TestListConversationsForwardsArchivedFlag(t *testing.T) {
	service := &stubChatService{
		conversationsResult: []models.Conversation{
			{ID: 17, UserID: 42, ContactPhone: "5511999990001", UnreadCount: 2},
		},
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations?archived=true", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 || !service.lastIncludeArchived {
		t.Fatalf("unexpected forwarded args: user=%d archived=%v", service.lastUserID, service.lastIncludeArchived)
	}

	var body struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
}

func TestGetMessagesReturnsPagination(t *testing.T) {
	service := &stubChatService{
		messagesResult: []models.Message{
			{ID: 5, ConversationID: 11, Sender: models.SenderContact, Content: "Oi", CreatedAt: time.Now().UTC()},
		},
		messagesTotal: 12,
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/11/messages?page=2&limit=5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 11 || service.lastPage != 2 || service.lastLimit != 5 {
		t.Fatalf("unexpected forwarded pagination: conversation=%d page=%d limit=%d", service.lastConversationID, service.lastPage, service.lastLimit)
	}

	var body struct {
		Messages   []models.Message      `json:"messages"`
		Pagination models.PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Messages) != 1 || body.Pagination.Total != 12 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected response body: %+v %+v", body.Messages, body.Pagination)
	}
}

func TestGetMessagesForeignConversationReturnsNotFound(t *testing.T) {
	service := &stubChatService{messagesErr: services.ErrNotFound}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/99/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSendMessageReturnsCreatedMessage(t *testing.T) {
	service := &stubChatService{
		sendResult: &models.Message{ID: 7, ConversationID: 11, Sender: models.SenderUser, Content: "Bom dia!"},
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/11/messages", strings.NewReader(`{"content":"Bom dia!"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastContent != "Bom dia!" {
		t.Fatalf("expected content forwarded, got %q", service.lastContent)
	}
}

func TestSendMessageWithoutSessionReturnsConflict(t *testing.T) {
	service := &stubChatService{sendErr: services.ErrNoActiveSession}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/11/messages", strings.NewReader(`{"content":"Oi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestMarkReadReturnsZeroUnread(t *testing.T) {
	service := &stubChatService{}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/conversations/11/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 11 {
		t.Fatalf("expected conversation 11, got %d", service.lastConversationID)
	}

	var body struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.UnreadCount != 0 {
		t.Fatalf("expected unread_count 0, got %d", body.UnreadCount)
	}
}

func TestSetArchivedForwardsFlag(t *testing.T) {
	service := &stubChatService{}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/conversations/11/archive", strings.NewReader(`{"archived":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !service.lastArchivedFlag {
		t.Fatal("expected archived=true forwarded to service")
	}
}
