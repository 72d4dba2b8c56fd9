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

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/services"
	chatws "github.com/KudzoNelsam/easycollis/internal/websocket"
)

type stubChatService struct {
	conversationsResult []models.ConversationSummary
	conversationsErr    error
	messagesResult      []models.Message
	messagesTotal       int
	messagesErr         error
	lastActor           services.Actor
	lastConversationID  int64
	lastPage            int
	lastLimit           int
}

func (s *stubChatService) ListConversations(_ context.Context, actor services.Actor) ([]models.ConversationSummary, error) {
	s.lastActor = actor
	return s.conversationsResult, s.conversationsErr
}

func (s *stubChatService) ListMessages(_ context.Context, actor services.Actor, conversationID int64, page int, limit int) ([]models.Message, int, error) {
	s.lastActor = actor
	s.lastConversationID = conversationID
	s.lastPage = page
	s.lastLimit = limit
	return s.messagesResult, s.messagesTotal, s.messagesErr
}

func (s *stubChatService) SendMessage(_ context.Context, _ services.Actor, _ int64, _ string) (*services.ChatDelivery, error) {
	return nil, nil
}

type stubContactGate struct {
	result    *models.Conversation
	created   bool
	err       error
	lastActor services.Actor
	lastGPID  int64
}

func (s *stubContactGate) Contact(_ context.Context, actor services.Actor, gpID int64) (*models.Conversation, bool, error) {
	s.lastActor = actor
	s.lastGPID = gpID
	return s.result, s.created, s.err
}

func newChatTestApp(chat chatApplicationService, contacts contactGate, role string, userID string) *fiber.App {
	handler := NewChatHandler(chat, contacts, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/conversations", handler.ListConversations)
	app.Post("/api/v1/conversations", handler.CreateConversation)
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)
	return app
}

func TestListConversationsReturnsConversationSummaries(t *testing.T) {
	lastMessage := "A demain"
	lastTime := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	service := &stubChatService{
		conversationsResult: []models.ConversationSummary{
			{
				Conversation: models.Conversation{
					ID:              17,
					ClientID:        42,
					GPID:            8,
					LastMessage:     &lastMessage,
					LastMessageTime: &lastTime,
				},
				UnreadCount: 2,
			},
		},
	}
	app := newChatTestApp(service, &stubContactGate{}, "client", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActor.ID != 42 || service.lastActor.Role != models.RoleClient {
		t.Fatalf("unexpected actor context: %+v", service.lastActor)
	}

	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
}

func TestCreateConversationReturns201WhenOpened(t *testing.T) {
	contacts := &stubContactGate{
		result:  &models.Conversation{ID: 9, ClientID: 42, GPID: 7},
		created: true,
	}
	app := newChatTestApp(&stubChatService{}, contacts, "client", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"gp_id":7}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if contacts.lastGPID != 7 {
		t.Fatalf("expected gp id 7, got %d", contacts.lastGPID)
	}
}

func TestCreateConversationReturns200WhenExisting(t *testing.T) {
	contacts := &stubContactGate{
		result:  &models.Conversation{ID: 9, ClientID: 42, GPID: 7},
		created: false,
	}
	app := newChatTestApp(&stubChatService{}, contacts, "client", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"gp_id":7}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for an existing thread, got %d", resp.StatusCode)
	}
}

func TestCreateConversationWithoutPassReturns402(t *testing.T) {
	contacts := &stubContactGate{err: services.ErrPassRequired}
	app := newChatTestApp(&stubChatService{}, contacts, "client", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"gp_id":7}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}
}

func TestCreateConversationAsGPReturns403(t *testing.T) {
	contacts := &stubContactGate{err: services.ErrRoleNotAllowed}
	app := newChatTestApp(&stubChatService{}, contacts, "gp", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"gp_id":8}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetMessagesReturnsPagination(t *testing.T) {
	service := &stubChatService{
		messagesResult: []models.Message{
			{ID: 5, ConversationID: 11, SenderID: 7, Content: "Bonjour", CreatedAt: time.Now().UTC()},
		},
		messagesTotal: 12,
	}
	app := newChatTestApp(service, &stubContactGate{}, "gp", "7")

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

func TestGetMessagesReturnsNotFound(t *testing.T) {
	service := &stubChatService{messagesErr: services.ErrNotFound}
	app := newChatTestApp(service, &stubContactGate{}, "gp", "7")

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
