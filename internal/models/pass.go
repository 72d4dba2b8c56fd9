package models

import "time"

// PassMode selects the product's credential model. Exactly one mode is active
// system-wide; the union below keeps the two shapes from ever sharing a record.
type PassMode string

const (
	PassModeBalance PassMode = "balance"
	PassModeWindow  PassMode = "window"
)

func ParsePassMode(raw string) (PassMode, bool) {
	switch PassMode(raw) {
	case PassModeBalance:
		return PassModeBalance, true
	case PassModeWindow:
		return PassModeWindow, true
	default:
		return "", false
	}
}

// Credential is the tagged union over the two PASS shapes.
type Credential interface {
	Mode() PassMode
}

// BalanceCredential is a consumable credit balance, one unit per contact.
type BalanceCredential struct {
	Credits int `json:"credits"`
}

func (BalanceCredential) Mode() PassMode { return PassModeBalance }

// WindowCredential grants unlimited contacts until ValidUntil. A nil
// ValidUntil means the user never held a pass.
type WindowCredential struct {
	ValidUntil *time.Time `json:"valid_until"`
}

func (WindowCredential) Mode() PassMode { return PassModeWindow }

// PassPack is a purchasable offer. DurationDays applies in window mode,
// Credits in balance mode; packs carry both so the catalog survives a mode
// switch without edits.
type PassPack struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Role         Role    `json:"role"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"duration_days"`
	Credits      int     `json:"credits"`
	Popular      bool    `json:"popular,omitempty"`
}

type PassPayment struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	PackID    string    `json:"pack_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
