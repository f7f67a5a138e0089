// Package gateway talks to the hosted payment page provider (Snap wire
// format) and verifies its server-to-server callbacks.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Client creates gateway transactions.
type Client struct {
	baseURL   string
	serverKey string
	http      *http.Client
}

// Item is one line of the transaction's item_details.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int32
}

type Customer struct {
	FirstName string
	Email     string
}

// TransactionRequest describes a payment to open for an order.
type TransactionRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	Items    []Item
	Customer Customer
}

// Transaction is the gateway's answer: a token and the hosted payment page.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, e.Body)
}

func NewClient(baseURL, serverKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serverKey: serverKey,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type itemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

type transactionPayload struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	ItemDetails        []itemDetail       `json:"item_details,omitempty"`
	CustomerDetails    customerDetails    `json:"customer_details"`
}

// CreateTransaction opens a Snap transaction and returns its redirect URL.
// Amounts are sent in whole currency units.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (Transaction, error) {
	payload := transactionPayload{
		TransactionDetails: transactionDetails{
			OrderID:     req.OrderID,
			GrossAmount: req.Amount.Round(0).IntPart(),
		},
		CustomerDetails: customerDetails{
			FirstName: req.Customer.FirstName,
			Email:     req.Customer.Email,
		},
	}
	for _, it := range req.Items {
		payload.ItemDetails = append(payload.ItemDetails, itemDetail{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price.Round(0).IntPart(),
			Quantity: it.Quantity,
		})
	}

	endpoint, err := url.JoinPath(c.baseURL, "snap", "v1", "transactions")
	if err != nil {
		return Transaction{}, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Transaction{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Transaction{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Transaction{}, fmt.Errorf("gateway: create transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Transaction{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return Transaction{}, fmt.Errorf("gateway: decode transaction: %w", err)
	}
	if tx.RedirectURL == "" {
		return Transaction{}, fmt.Errorf("gateway: empty redirect_url")
	}
	return tx, nil
}

// Callback is the notification body the gateway posts after a status change.
type Callback struct {
	OrderID           string `json:"order_id"`
	SignatureKey      string `json:"signature_key"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionStatus string `json:"transaction_status"`
}

// Signature is hex(sha512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether cb carries a valid signature for serverKey.
func (cb Callback) Verify(serverKey string) bool {
	want := Signature(cb.OrderID, cb.StatusCode, cb.GrossAmount, serverKey)
	got := strings.ToLower(strings.TrimSpace(cb.SignatureKey))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
