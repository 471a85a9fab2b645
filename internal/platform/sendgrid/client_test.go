package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

func TestSendBuildsMailRequest(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" || r.Header.Get("Authorization") != "Bearer sg-key" {
			t.Errorf("unexpected request: %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "sg-key", BaseURL: srv.URL, FromEmail: "no-reply@formcraft.test", FromName: "FormCraft"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), Message{
		To:      Address{Email: " ann@example.com "},
		Subject: "Reset your password",
		Text:    "Use this link",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.StatusCode != http.StatusAccepted || res.MessageID != "msg-1" {
		t.Fatalf("result: %+v", res)
	}
	if got.From.Email != "no-reply@formcraft.test" || got.Personalizations[0].To[0].Email != "ann@example.com" {
		t.Fatalf("wire request: %+v", got)
	}
	if len(got.Content) != 1 || got.Content[0].Type != "text/plain" {
		t.Fatalf("content: %+v", got.Content)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, FromEmail: "a@b.c", MaxRetries: 1})
	if _, err := c.Send(context.Background(), Message{To: Address{Email: "x@y.z"}, Subject: "s", HTML: "<p>hi</p>"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls: got=%d want=2", n)
	}
}

func TestSendSurfacesClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from","field":"from"}]}`))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, FromEmail: "a@b.c", MaxRetries: 3})
	_, err := c.Send(context.Background(), Message{To: Address{Email: "x@y.z"}, Subject: "s", Text: "t"})
	he, ok := err.(*HTTPError)
	if !ok || he.StatusCode != http.StatusBadRequest || he.Error() != "sendgrid http 400: bad from" {
		t.Fatalf("err: got=%v", err)
	}
}

func TestNewRequiresSender(t *testing.T) {
	if _, err := New(logger.Nop(), Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without from email")
	}
	if (Config{APIKey: "k", FromEmail: "a@b.c"}).Configured() != true {
		t.Fatalf("Configured: want true")
	}
}
