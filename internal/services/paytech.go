package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// PaytechClient talks to the PayTech redirect-based gateway. The backend only
// requests a checkout redirect; settlement is confirmed later through the IPN
// callback and is never validated here.
type PaytechClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	env        string
	ipnURL     string
	successURL string
	cancelURL  string
	httpClient *http.Client
}

func NewPaytechClient(baseURL, apiKey, apiSecret, env, ipnURL, successURL, cancelURL string) *PaytechClient {
	return &PaytechClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		env:        env,
		ipnURL:     ipnURL,
		successURL: successURL,
		cancelURL:  cancelURL,
		httpClient: http.DefaultClient,
	}
}

type RequestPaymentInput struct {
	Amount      float64
	Currency    string
	Ref         string
	ItemName    string
	Email       string
	CustomField string
}

type paytechPaymentRequest struct {
	ItemName    string `json:"item_name"`
	ItemPrice   string `json:"item_price"`
	Currency    string `json:"currency"`
	RefCommand  string `json:"ref_command"`
	CommandName string `json:"command_name"`
	Env         string `json:"env"`
	IpnURL      string `json:"ipn_url"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
	CustomField string `json:"custom_field"`
	Email       string `json:"email"`
}

// RequestPayment registers the pending payment with PayTech and returns the
// URL the client must be redirected to.
func (p *PaytechClient) RequestPayment(ctx context.Context, input RequestPaymentInput) (string, error) {
	payload := paytechPaymentRequest{
		ItemName:    input.ItemName,
		ItemPrice:   strconv.FormatFloat(input.Amount, 'f', -1, 64),
		Currency:    input.Currency,
		RefCommand:  input.Ref,
		CommandName: input.ItemName,
		Env:         p.env,
		IpnURL:      p.ipnURL,
		SuccessURL:  p.successURL,
		CancelURL:   p.cancelURL,
		CustomField: input.CustomField,
		Email:       input.Email,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payment/request-payment", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build payment request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API_KEY", p.apiKey)
	req.Header.Set("API_SECRET", p.apiSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("request payment: status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var response struct {
		Success     int    `json:"success"`
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode payment response: %w", err)
	}
	if response.Success != 1 || response.RedirectURL == "" {
		return "", fmt.Errorf("payment request rejected by gateway")
	}

	return response.RedirectURL, nil
}
