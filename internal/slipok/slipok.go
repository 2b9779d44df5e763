// Package slipok is a client for the SlipOK bank-slip verification API.
// A slip is submitted either as the raw image or as the QR payload
// scanned from it, and the service returns the transfer details it
// read.
package slipok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// Known rejection codes returned by the verification service.
const (
	CodeUnreadableSlip   = 1001
	CodeNoQRCode         = 1007
	CodeSlipAlreadyUsed  = 1012
	CodeAmountMismatch   = 1013
	CodeReceiverMismatch = 1014
	CodeInvalidAPIKey    = 2001
	CodeQuotaExceeded    = 2002
)

var userMessages = map[int]string{
	CodeUnreadableSlip:   "ไม่พบข้อมูลในสลิป",
	CodeNoQRCode:         "ไม่พบ QR Code ในรูป",
	CodeSlipAlreadyUsed:  "สลิปนี้เคยถูกใช้ยืนยันแล้ว",
	CodeAmountMismatch:   "จำนวนเงินไม่ตรงกับที่คาดหวัง",
	CodeReceiverMismatch: "ผู้รับเงินไม่ตรงกัน",
	CodeInvalidAPIKey:    "API Key ไม่ถูกต้อง",
	CodeQuotaExceeded:    "หมดโควต้าการใช้งาน",
}

// APIError is a rejection from the verification service, as opposed to
// a transport failure.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slip verification rejected (code %d): %s", e.Code, e.Message)
}

// UserMessage returns a Thai-language explanation suitable for showing
// to the submitter.
func (e *APIError) UserMessage() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	return "เกิดข้อผิดพลาดในการตรวจสอบสลิป"
}

// Party is one side of the transfer as read from the slip.
type Party struct {
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	Account     struct {
		Value string `json:"value"`
	} `json:"account"`
}

// Slip is the transfer data the service extracted.
type Slip struct {
	TransRef       string  `json:"transRef"`
	TransDate      string  `json:"transDate"`
	TransTime      string  `json:"transTime"`
	TransTimestamp string  `json:"transTimestamp"`
	Amount         float64 `json:"amount"`
	Sender         Party   `json:"sender"`
	Receiver       Party   `json:"receiver"`
	SendingBank    string  `json:"sendingBank"`
	ReceivingBank  string  `json:"receivingBank"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *Slip  `json:"data"`
}

// Client calls the verification API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a Client for the given endpoint. baseURL is the full
// per-account URL, e.g. https://api.slipok.com/api/line/apikey/12345.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// VerifyImage submits the slip image for verification. expectedAmount
// lets the service cross-check the amount; pass 0 to skip the check.
func (c *Client) VerifyImage(ctx context.Context, image []byte, expectedAmount float64) (*Slip, error) {
	return c.verify(ctx, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("files", "slip.jpg")
		if err != nil {
			return err
		}
		_, err = part.Write(image)
		return err
	}, expectedAmount)
}

// VerifyQR submits the QR payload scanned from a slip.
func (c *Client) VerifyQR(ctx context.Context, qrData string, expectedAmount float64) (*Slip, error) {
	return c.verify(ctx, func(w *multipart.Writer) error {
		return w.WriteField("data", qrData)
	}, expectedAmount)
}

func (c *Client) verify(ctx context.Context, payload func(*multipart.Writer) error, expectedAmount float64) (*Slip, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := payload(w); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if expectedAmount > 0 {
		if err := w.WriteField("amount", strconv.FormatFloat(expectedAmount, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("failed to build request body: %w", err)
		}
	}
	// Keep the slip out of the provider's own transaction log.
	if err := w.WriteField("log", "false"); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("x-authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slip verification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !vr.Success {
		return nil, &APIError{Code: vr.Code, Message: vr.Message}
	}
	if vr.Data == nil {
		return nil, fmt.Errorf("verification succeeded but response carried no slip data")
	}
	return vr.Data, nil
}
