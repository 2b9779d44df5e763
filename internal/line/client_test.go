package line

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("channel-token", WithEndpoints(srv.URL, srv.URL)), srv
}

func TestReply(t *testing.T) {
	var got map[string]json.RawMessage
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/reply" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer channel-token" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.Write([]byte("{}"))
	})

	err := client.Reply(context.Background(), "reply-token-1", NewText("hello"))
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}

	var token string
	if err := json.Unmarshal(got["replyToken"], &token); err != nil || token != "reply-token-1" {
		t.Errorf("replyToken = %s", got["replyToken"])
	}
	var messages []map[string]any
	if err := json.Unmarshal(got["messages"], &messages); err != nil {
		t.Fatalf("failed to decode messages: %v", err)
	}
	if len(messages) != 1 || messages[0]["type"] != "text" || messages[0]["text"] != "hello" {
		t.Errorf("messages = %v", messages)
	}
}

func TestPush_FlexWithQuickReply(t *testing.T) {
	var body []byte
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte("{}"))
	})

	bubble := NewBubble()
	bubble.Body = NewBox("vertical",
		&Text{Type: "text", Text: "who paid?", Weight: "bold", Size: "xl"},
	)
	msg := NewFlex("pick a payer", bubble).WithQuickReply(
		NewMessageAction("ALICE", "ALICE"),
		NewMessageAction("BOB", "BOB"),
	)

	if err := client.Push(context.Background(), "U1234", msg); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	var got struct {
		To       string `json:"to"`
		Messages []struct {
			Type       string `json:"type"`
			AltText    string `json:"altText"`
			QuickReply *struct {
				Items []struct {
					Action MessageAction `json:"action"`
				} `json:"items"`
			} `json:"quickReply"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.To != "U1234" {
		t.Errorf("to = %q", got.To)
	}
	if len(got.Messages) != 1 || got.Messages[0].Type != "flex" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if got.Messages[0].QuickReply == nil || len(got.Messages[0].QuickReply.Items) != 2 {
		t.Fatalf("quickReply = %+v", got.Messages[0].QuickReply)
	}
	if got.Messages[0].QuickReply.Items[0].Action.Text != "ALICE" {
		t.Errorf("first action = %+v", got.Messages[0].QuickReply.Items[0].Action)
	}
}

func TestPush_ErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid user"}`))
	})

	if err := client.Push(context.Background(), "U1234", NewText("hi")); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestGetMessageContent(t *testing.T) {
	want := []byte{0xff, 0xd8, 0xff, 0xe0}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/MSG123/content" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write(want)
	})

	got, err := client.GetMessageContent(context.Background(), "MSG123")
	if err != nil {
		t.Fatalf("GetMessageContent failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("content = %v, want %v", got, want)
	}
}

func TestNewMessageAction_TruncatesLabel(t *testing.T) {
	item := NewMessageAction("ABCDEFGHIJKLMNOPQRSTUVWXYZ", "full text")
	if got := len([]rune(item.Action.Label)); got != 20 {
		t.Errorf("label length = %d", got)
	}
	if item.Action.Text != "full text" {
		t.Errorf("text = %q", item.Action.Text)
	}
}
