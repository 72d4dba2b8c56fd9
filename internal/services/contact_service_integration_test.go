package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestContactConsumesOneCreditPerNewConversation(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	clientID := createIntegrationUser(t, ctx, pool, models.RoleClient)
	gpID := createIntegrationUser(t, ctx, pool, models.RoleGP)
	t.Cleanup(func() { cleanupIntegrationUsers(t, ctx, pool, clientID, gpID) })

	pass := NewPassService(models.PassModeBalance, repository.NewPassRepository(pool))
	service := NewContactService(pool, repository.NewUserRepository(pool), repository.NewConversationRepository(pool), pass, nil)

	if _, err := pass.Grant(ctx, clientID, 2); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	conversation, created, err := service.Contact(ctx, Actor{ID: clientID, Role: models.RoleClient}, gpID)
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if !created {
		t.Fatalf("expected a new conversation")
	}

	credential, err := pass.Credential(ctx, clientID)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if balance := credential.(models.BalanceCredential); balance.Credits != 1 {
		t.Fatalf("expected 1 credit left, got %d", balance.Credits)
	}

	// Recontacting the same GP reuses the thread and spends nothing.
	again, created, err := service.Contact(ctx, Actor{ID: clientID, Role: models.RoleClient}, gpID)
	if err != nil {
		t.Fatalf("second Contact: %v", err)
	}
	if created || again.ID != conversation.ID {
		t.Fatalf("expected reuse of conversation %d, got %d (created=%v)", conversation.ID, again.ID, created)
	}

	credential, err = pass.Credential(ctx, clientID)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if balance := credential.(models.BalanceCredential); balance.Credits != 1 {
		t.Fatalf("expected balance untouched at 1, got %d", balance.Credits)
	}
}

func TestContactWithEmptyBalanceLeavesNoConversation(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	clientID := createIntegrationUser(t, ctx, pool, models.RoleClient)
	gpID := createIntegrationUser(t, ctx, pool, models.RoleGP)
	t.Cleanup(func() { cleanupIntegrationUsers(t, ctx, pool, clientID, gpID) })

	pass := NewPassService(models.PassModeBalance, repository.NewPassRepository(pool))
	conversationRepo := repository.NewConversationRepository(pool)
	service := NewContactService(pool, repository.NewUserRepository(pool), conversationRepo, pass, nil)

	_, _, err := service.Contact(ctx, Actor{ID: clientID, Role: models.RoleClient}, gpID)
	if err != ErrPassRequired {
		t.Fatalf("expected ErrPassRequired, got %v", err)
	}

	if _, err := conversationRepo.FindBetween(ctx, clientID, gpID); err == nil {
		t.Fatalf("expected no conversation for the failed contact")
	}
}

func TestConversationDirectoryKeepsPairUnique(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	clientID := createIntegrationUser(t, ctx, pool, models.RoleClient)
	gpID := createIntegrationUser(t, ctx, pool, models.RoleGP)
	t.Cleanup(func() { cleanupIntegrationUsers(t, ctx, pool, clientID, gpID) })

	repo := repository.NewConversationRepository(pool)

	first, err := repo.CreateOrGet(ctx, clientID, gpID)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	second, err := repo.CreateOrGet(ctx, clientID, gpID)
	if err != nil {
		t.Fatalf("CreateOrGet again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one conversation per pair, got %d and %d", first.ID, second.ID)
	}
}

func TestSendMessageKeepsSummaryConsistent(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	clientID := createIntegrationUser(t, ctx, pool, models.RoleClient)
	gpID := createIntegrationUser(t, ctx, pool, models.RoleGP)
	t.Cleanup(func() { cleanupIntegrationUsers(t, ctx, pool, clientID, gpID) })

	conversationRepo := repository.NewConversationRepository(pool)
	conversation, err := conversationRepo.CreateOrGet(ctx, clientID, gpID)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}

	chat := NewChatService(pool, conversationRepo, repository.NewMessageRepository(pool))
	actor := Actor{ID: clientID, Role: models.RoleClient}

	contents := []string{"Bonjour", "Vous partez quand ?", "Merci"}
	for _, content := range contents {
		if _, err := chat.SendMessage(ctx, actor, conversation.ID, content); err != nil {
			t.Fatalf("SendMessage %q: %v", content, err)
		}
	}

	updated, err := conversationRepo.GetByID(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.LastMessage == nil || *updated.LastMessage != "Merci" {
		t.Fatalf("expected summary to carry the newest message, got %+v", updated.LastMessage)
	}

	messages, total, err := chat.ListMessages(ctx, actor, conversation.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != len(contents) || len(messages) != len(contents) {
		t.Fatalf("expected %d messages, got %d (total %d)", len(contents), len(messages), total)
	}
	for i, content := range contents {
		if messages[i].Content != content {
			t.Fatalf("expected append order, got %q at %d", messages[i].Content, i)
		}
	}
	if updated.LastMessageTime == nil || !updated.LastMessageTime.Equal(messages[len(messages)-1].CreatedAt) {
		t.Fatalf("summary timestamp does not match the newest message")
	}

	// A second listing without new sends returns the same sequence.
	repeat, _, err := chat.ListMessages(ctx, actor, conversation.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListMessages repeat: %v", err)
	}
	for i := range messages {
		if repeat[i].ID != messages[i].ID {
			t.Fatalf("listing changed between calls at index %d", i)
		}
	}
}

func TestSendMessageRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	clientID := createIntegrationUser(t, ctx, pool, models.RoleClient)
	gpID := createIntegrationUser(t, ctx, pool, models.RoleGP)
	outsiderID := createIntegrationUser(t, ctx, pool, models.RoleClient)
	t.Cleanup(func() { cleanupIntegrationUsers(t, ctx, pool, clientID, gpID, outsiderID) })

	conversationRepo := repository.NewConversationRepository(pool)
	conversation, err := conversationRepo.CreateOrGet(ctx, clientID, gpID)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}

	chat := NewChatService(pool, conversationRepo, repository.NewMessageRepository(pool))

	_, err = chat.SendMessage(ctx, Actor{ID: outsiderID, Role: models.RoleClient}, conversation.ID, "salut")
	if err != ErrParticipantMismatch {
		t.Fatalf("expected ErrParticipantMismatch, got %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createIntegrationUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role models.Role) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("contact-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		FullName:     "Test User",
		Role:         role,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}

	if err := repository.NewPassRepository(pool).CreateEmpty(ctx, user.ID); err != nil {
		t.Fatalf("CreateEmpty pass account: %v", err)
	}

	return user.ID
}

func cleanupIntegrationUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM messages WHERE sender_id = ANY($1) OR receiver_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup messages: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM conversations WHERE client_id = ANY($1) OR gp_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup conversations: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
