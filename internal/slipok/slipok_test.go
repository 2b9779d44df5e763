package slipok

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const successBody = `{
	"success": true,
	"data": {
		"transRef": "015123456789012",
		"transDate": "20260815",
		"transTime": "12:30:45",
		"amount": 100,
		"sender": {"displayName": "MR. BOB B", "name": "Bob Builder"},
		"receiver": {"displayName": "ALICE W.", "name": "Alice Wonderland"},
		"sendingBank": "004",
		"receivingBank": "014"
	}
}`

func TestVerifyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("x-authorization"); got != "test-key" {
			t.Errorf("x-authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if _, ok := r.MultipartForm.File["files"]; !ok {
			t.Error("missing files part")
		}
		if got := r.FormValue("amount"); got != "100" {
			t.Errorf("amount = %q", got)
		}
		if got := r.FormValue("log"); got != "false" {
			t.Errorf("log = %q", got)
		}
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	slip, err := client.VerifyImage(context.Background(), []byte("jpeg-bytes"), 100)
	if err != nil {
		t.Fatalf("VerifyImage failed: %v", err)
	}

	if slip.TransRef != "015123456789012" {
		t.Errorf("TransRef = %q", slip.TransRef)
	}
	if slip.Amount != 100 {
		t.Errorf("Amount = %v", slip.Amount)
	}
	if slip.Receiver.DisplayName != "ALICE W." {
		t.Errorf("Receiver.DisplayName = %q", slip.Receiver.DisplayName)
	}
}

func TestVerifyQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.FormValue("data"); got != "0041000600000101030040220TEST" {
			t.Errorf("data = %q", got)
		}
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	if _, err := client.VerifyQR(context.Background(), "0041000600000101030040220TEST", 100); err != nil {
		t.Fatalf("VerifyQR failed: %v", err)
	}
}

func TestVerify_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "code": 1012, "message": "slip already used"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	_, err := client.VerifyImage(context.Background(), []byte("jpeg-bytes"), 100)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != CodeSlipAlreadyUsed {
		t.Errorf("Code = %d", apiErr.Code)
	}
	if apiErr.UserMessage() != "สลิปนี้เคยถูกใช้ยืนยันแล้ว" {
		t.Errorf("UserMessage = %q", apiErr.UserMessage())
	}
}

func TestVerify_UnknownCodeMessage(t *testing.T) {
	e := &APIError{Code: 9999, Message: "internal"}
	if e.UserMessage() != "เกิดข้อผิดพลาดในการตรวจสอบสลิป" {
		t.Errorf("UserMessage = %q", e.UserMessage())
	}
}

func TestVerify_OmitsAmountWhenZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if _, ok := r.MultipartForm.Value["amount"]; ok {
			t.Error("amount should be omitted")
		}
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	if _, err := client.VerifyImage(context.Background(), []byte("jpeg-bytes"), 0); err != nil {
		t.Fatalf("VerifyImage failed: %v", err)
	}
}
