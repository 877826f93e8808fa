package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type stubChatConversations struct {
	owned       map[int64]int64
	resetCalls  []int64
	setArchived []bool
}

func (s *stubChatConversations) GetByIDForUser(_ context.Context, conversationID, userID int64) (*models.Conversation, error) {
	owner, ok := s.owned[conversationID]
	if !ok || owner != userID {
		return nil, pgx.ErrNoRows
	}
	return &models.Conversation{ID: conversationID, UserID: userID}, nil
}

func (s *stubChatConversations) ListByUser(_ context.Context, userID int64, _ bool) ([]models.Conversation, error) {
	return []models.Conversation{{ID: 1, UserID: userID}}, nil
}

func (s *stubChatConversations) ResetUnread(_ context.Context, _, conversationID int64) error {
	s.resetCalls = append(s.resetCalls, conversationID)
	return nil
}

func (s *stubChatConversations) SetArchived(_ context.Context, _, _ int64, archived bool) error {
	s.setArchived = append(s.setArchived, archived)
	return nil
}

type stubChatMessages struct {
	messages  []models.Message
	total     int
	lastLimit int
	lastOff   int
	readCalls []int64
}

func (s *stubChatMessages) ListByConversation(_ context.Context, _ int64, limit, offset int) ([]models.Message, int, error) {
	s.lastLimit = limit
	s.lastOff = offset
	return s.messages, s.total, nil
}

func (s *stubChatMessages) MarkConversationRead(_ context.Context, conversationID int64) error {
	s.readCalls = append(s.readCalls, conversationID)
	return nil
}

type stubConversationSender struct {
	message *models.Message
	err     error
}

func (s *stubConversationSender) SendToConversation(_ context.Context, _, _ int64, _ string) (*models.Message, error) {
	return s.message, s.err
}

func TestListMessagesPagination(t *testing.T) {
	conversations := &stubChatConversations{owned: map[int64]int64{5: 7}}
	messages := &stubChatMessages{messages: []models.Message{{ID: 1}}, total: 31}
	service := NewChatService(conversations, messages, &stubConversationSender{})

	_, total, err := service.ListMessages(context.Background(), 7, 5, 3, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 31 {
		t.Errorf("expected total 31, got %d", total)
	}
	if messages.lastLimit != 10 || messages.lastOff != 20 {
		t.Errorf("expected limit 10 offset 20, got %d/%d", messages.lastLimit, messages.lastOff)
	}
}

func TestListMessagesForeignConversation(t *testing.T) {
	conversations := &stubChatConversations{owned: map[int64]int64{5: 99}}
	service := NewChatService(conversations, &stubChatMessages{}, &stubConversationSender{})

	_, _, err := service.ListMessages(context.Background(), 7, 5, 1, 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMessagesRejectsBadPaging(t *testing.T) {
	service := NewChatService(&stubChatConversations{}, &stubChatMessages{}, &stubConversationSender{})

	if _, _, err := service.ListMessages(context.Background(), 7, 5, 0, 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("page 0: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := service.ListMessages(context.Background(), 7, 5, 1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("limit 0: expected ErrInvalidInput, got %v", err)
	}
}

func TestMarkReadResetsCounterAndMessages(t *testing.T) {
	conversations := &stubChatConversations{owned: map[int64]int64{5: 7}}
	messages := &stubChatMessages{}
	service := NewChatService(conversations, messages, &stubConversationSender{})

	if err := service.MarkRead(context.Background(), 7, 5); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if len(messages.readCalls) != 1 || messages.readCalls[0] != 5 {
		t.Errorf("expected messages marked read for conversation 5, got %v", messages.readCalls)
	}
	if len(conversations.resetCalls) != 1 || conversations.resetCalls[0] != 5 {
		t.Errorf("expected unread reset for conversation 5, got %v", conversations.resetCalls)
	}
}

func TestMarkReadForeignConversation(t *testing.T) {
	conversations := &stubChatConversations{owned: map[int64]int64{5: 99}}
	messages := &stubChatMessages{}
	service := NewChatService(conversations, messages, &stubConversationSender{})

	if err := service.MarkRead(context.Background(), 7, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(messages.readCalls) != 0 {
		t.Errorf("expected no read writes, got %v", messages.readCalls)
	}
}
