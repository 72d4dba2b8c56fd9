package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

type stubPaymentStore struct {
	payments map[string]*models.PassPayment
	nextID   int64
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{payments: make(map[string]*models.PassPayment), nextID: 1}
}

func (s *stubPaymentStore) Create(_ context.Context, input repository.CreatePaymentInput) (*models.PassPayment, error) {
	payment := &models.PassPayment{
		ID:       s.nextID,
		Ref:      input.Ref,
		UserID:   input.UserID,
		Role:     input.Role,
		PackID:   input.PackID,
		Amount:   input.Amount,
		Currency: input.Currency,
		Status:   input.Status,
	}
	s.nextID++
	s.payments[payment.Ref] = payment
	return payment, nil
}

func (s *stubPaymentStore) GetByRef(_ context.Context, ref string) (*models.PassPayment, error) {
	payment, ok := s.payments[ref]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return payment, nil
}

func (s *stubPaymentStore) UpdateStatusIfCurrent(_ context.Context, paymentID int64, currentStatus, nextStatus string) (*models.PassPayment, error) {
	for _, payment := range s.payments {
		if payment.ID == paymentID && payment.Status == currentStatus {
			payment.Status = nextStatus
			return payment, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubPaymentStore) ListByUser(_ context.Context, userID int64) ([]models.PassPayment, error) {
	var payments []models.PassPayment
	for _, payment := range s.payments {
		if payment.UserID == userID {
			payments = append(payments, *payment)
		}
	}
	return payments, nil
}

func (s *stubPaymentStore) ListAll(_ context.Context, _, _ int) ([]models.PassPayment, int, error) {
	var payments []models.PassPayment
	for _, payment := range s.payments {
		payments = append(payments, *payment)
	}
	return payments, len(payments), nil
}

func newPaytechTestServer(t *testing.T, redirectURL string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment/request-payment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("API_KEY") == "" || r.Header.Get("API_SECRET") == "" {
			t.Errorf("missing gateway credentials")
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode gateway payload: %v", err)
		}
		if payload["ref_command"] == "" || payload["item_price"] == "" {
			t.Errorf("incomplete gateway payload: %+v", payload)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":      1,
			"token":        "tok",
			"redirect_url": redirectURL,
		})
	}))
}

func TestPacksFilteredByRole(t *testing.T) {
	clientPacks := Packs(models.RoleClient)
	if len(clientPacks) == 0 {
		t.Fatalf("expected client packs")
	}
	for _, pack := range clientPacks {
		if pack.Role != models.RoleClient {
			t.Fatalf("unexpected pack in client catalog: %+v", pack)
		}
	}

	if len(Packs("")) != len(Packs(models.RoleClient))+len(Packs(models.RoleGP)) {
		t.Fatalf("expected empty role to return the full catalog")
	}

	if _, ok := PackByID("client-30"); !ok {
		t.Fatalf("expected client-30 pack to exist")
	}
	if _, ok := PackByID("nope"); ok {
		t.Fatalf("unexpected pack found")
	}
}

func TestCheckoutCreatesPendingPaymentAndRedirect(t *testing.T) {
	server := newPaytechTestServer(t, "https://paytech.example/redirect/42")
	defer server.Close()

	store := newStubPaymentStore()
	paytech := NewPaytechClient(server.URL, "key", "secret", "test", "", "", "")
	pass := NewPassService(models.PassModeWindow, newStubPassAccountStore())
	service := NewPaymentService(nil, store, contactTestUsers(), paytech, pass)

	payment, redirectURL, err := service.Checkout(context.Background(), Actor{ID: 1, Role: models.RoleClient}, "client-30")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if redirectURL != "https://paytech.example/redirect/42" {
		t.Fatalf("unexpected redirect url %q", redirectURL)
	}
	if payment.Status != PaymentStatusPending {
		t.Fatalf("expected pending payment, got %q", payment.Status)
	}
	if payment.Ref == "" {
		t.Fatalf("expected a generated reference")
	}
	if payment.Amount != 5000 || payment.Currency != "XOF" {
		t.Fatalf("unexpected payment terms: %+v", payment)
	}
}

func TestCheckoutRejectsWrongRolePack(t *testing.T) {
	pass := NewPassService(models.PassModeWindow, newStubPassAccountStore())
	service := NewPaymentService(nil, newStubPaymentStore(), contactTestUsers(), nil, pass)

	if _, _, err := service.Checkout(context.Background(), Actor{ID: 1, Role: models.RoleClient}, "gp-basic"); err != ErrRoleNotAllowed {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}
}

func TestCheckoutUnknownPack(t *testing.T) {
	pass := NewPassService(models.PassModeWindow, newStubPassAccountStore())
	service := NewPaymentService(nil, newStubPaymentStore(), contactTestUsers(), nil, pass)

	if _, _, err := service.Checkout(context.Background(), Actor{ID: 1, Role: models.RoleClient}, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckoutWithoutGatewayConfigured(t *testing.T) {
	pass := NewPassService(models.PassModeWindow, newStubPassAccountStore())
	service := NewPaymentService(nil, newStubPaymentStore(), contactTestUsers(), nil, pass)

	if _, _, err := service.Checkout(context.Background(), Actor{ID: 1, Role: models.RoleClient}, "client-30"); err != ErrPaymentUnavailable {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
}

func TestConfirmIPNMarksNonSaleEventsFailed(t *testing.T) {
	store := newStubPaymentStore()
	pending, err := store.Create(context.Background(), repository.CreatePaymentInput{
		Ref:      "ref-1",
		UserID:   1,
		Role:     models.RoleClient,
		PackID:   "client-30",
		Amount:   5000,
		Currency: "XOF",
		Status:   PaymentStatusPending,
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	pass := NewPassService(models.PassModeWindow, newStubPassAccountStore())
	service := NewPaymentService(nil, store, contactTestUsers(), nil, pass)

	if err := service.ConfirmIPN(context.Background(), "ref-1", "sale_canceled"); err != nil {
		t.Fatalf("ConfirmIPN: %v", err)
	}
	if pending.Status != PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %q", pending.Status)
	}

	// A replay of the same notification is a no-op.
	if err := service.ConfirmIPN(context.Background(), "ref-1", "sale_canceled"); err != nil {
		t.Fatalf("ConfirmIPN replay: %v", err)
	}
}

func TestConfirmIPNValidatesRef(t *testing.T) {
	pass := NewPassService(models.PassModeWindow, newStubPassAccountStore())
	service := NewPaymentService(nil, newStubPaymentStore(), contactTestUsers(), nil, pass)

	if err := service.ConfirmIPN(context.Background(), "", IPNEventSaleComplete); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := service.ConfirmIPN(context.Background(), "ghost", "sale_canceled"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
