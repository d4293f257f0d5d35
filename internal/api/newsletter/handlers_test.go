package newsletter

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codr1/Clubhouse/internal/api/apiutil"
	"github.com/codr1/Clubhouse/internal/db"
	"github.com/codr1/Clubhouse/internal/email"
	"github.com/codr1/Clubhouse/internal/testutil"
)

type sentEmail struct {
	recipient string
	subject   string
	body      string
}

type fakeSender struct {
	sent chan sentEmail
}

func (f *fakeSender) Deliver(ctx context.Context, envelope email.Envelope) error {
	f.sent <- sentEmail{recipient: envelope.To, subject: envelope.Message.Subject, body: envelope.Message.Body}
	return nil
}

func setupNewsletterTest(t *testing.T) (*db.DB, *fakeSender) {
	t.Helper()

	database := testutil.NewTestDB(t)
	sender := &fakeSender{sent: make(chan sentEmail, 8)}
	InitHandlers(database.Queries, sender, nil, apiutil.Site{ClubName: "Riverside FC", BaseURL: "https://riverside.example/"})

	prevNow := now
	now = func() time.Time { return time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC) }
	t.Cleanup(func() {
		now = prevNow
		InitHandlers(nil, nil, nil, apiutil.Site{})
	})
	return database, sender
}

func post(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func subscribe(body string) *httptest.ResponseRecorder {
	return post(HandleSubscribe, "/api/newsletter/subscribe", body)
}

func unsubscribe(body string) *httptest.ResponseRecorder {
	return post(HandleUnsubscribe, "/api/newsletter/unsubscribe", body)
}

func expectNoEmail(t *testing.T, sender *fakeSender) {
	t.Helper()
	select {
	case sent := <-sender.sent:
		t.Fatalf("unexpected email to %s", sent.recipient)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleSubscribeNewAddress(t *testing.T) {
	database, sender := setupNewsletterTest(t)

	rec := subscribe(`{"email":"Fan@Example.com","name":"Jo"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	subscriber, err := database.Queries.GetNewsletterSubscriberByEmail(context.Background(), "fan@example.com")
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if subscriber.Status != StatusActive || subscriber.Source != defaultSource || subscriber.Name != "Jo" {
		t.Fatalf("unexpected subscriber: %+v", subscriber)
	}

	select {
	case sent := <-sender.sent:
		if sent.recipient != "fan@example.com" {
			t.Fatalf("unexpected recipient %q", sent.recipient)
		}
		if !strings.Contains(sent.body, "https://riverside.example/newsletter/unsubscribe?email=fan%40example.com") {
			t.Fatalf("expected unsubscribe link in body: %s", sent.body)
		}
	case <-time.After(time.Second):
		t.Fatal("expected welcome email")
	}
}

func TestHandleSubscribeIsIdempotent(t *testing.T) {
	_, sender := setupNewsletterTest(t)

	if rec := subscribe(`{"email":"fan@example.com"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d", rec.Code)
	}
	<-sender.sent

	rec := subscribe(`{"email":"FAN@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d, body = %s", rec.Code, rec.Body.String())
	}
	expectNoEmail(t, sender)
}

func TestHandleUnsubscribeThenResubscribe(t *testing.T) {
	database, sender := setupNewsletterTest(t)

	subscribe(`{"email":"fan@example.com","name":"Jo"}`)
	<-sender.sent

	if rec := unsubscribe(`{"email":"fan@example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe status = %d", rec.Code)
	}
	subscriber, err := database.Queries.GetNewsletterSubscriberByEmail(context.Background(), "fan@example.com")
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if subscriber.Status != StatusUnsubscribed || !subscriber.UnsubscribedAt.Valid {
		t.Fatalf("expected unsubscribed row, got %+v", subscriber)
	}

	if rec := subscribe(`{"email":"fan@example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("resubscribe status = %d", rec.Code)
	}
	subscriber, err = database.Queries.GetNewsletterSubscriberByEmail(context.Background(), "fan@example.com")
	if err != nil {
		t.Fatalf("get subscriber: %v", err)
	}
	if subscriber.Status != StatusActive || subscriber.UnsubscribedAt.Valid {
		t.Fatalf("expected reactivated row, got %+v", subscriber)
	}
	if subscriber.Name != "Jo" {
		t.Fatalf("expected blank name to keep %q, got %q", "Jo", subscriber.Name)
	}
	expectNoEmail(t, sender)
}

func TestHandleUnsubscribeUnknownAddress(t *testing.T) {
	setupNewsletterTest(t)

	known := subscribe(`{"email":"fan@example.com"}`)
	if known.Code != http.StatusCreated {
		t.Fatalf("subscribe status = %d", known.Code)
	}

	first := unsubscribe(`{"email":"fan@example.com"}`)
	unknown := unsubscribe(`{"email":"stranger@example.com"}`)
	if first.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d", first.Code, unknown.Code)
	}
	if first.Body.String() != unknown.Body.String() {
		t.Fatalf("responses differ: %s vs %s", first.Body.String(), unknown.Body.String())
	}

	if rec := unsubscribe(`{"email":"not-an-email"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email status = %d", rec.Code)
	}
}

func TestHandleListSubscribers(t *testing.T) {
	_, sender := setupNewsletterTest(t)

	subscribe(`{"email":"a@example.com","source":"footer"}`)
	subscribe(`{"email":"b@example.com"}`)
	<-sender.sent
	<-sender.sent
	unsubscribe(`{"email":"b@example.com"}`)

	rec := httptest.NewRecorder()
	HandleListSubscribers(rec, httptest.NewRequest(http.MethodGet, "/api/admin/newsletter", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Subscribers []subscriberResponse `json:"subscribers"`
		Total       int                  `json:"total"`
		Active      int64                `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || body.Active != 1 {
		t.Fatalf("unexpected totals: %+v", body)
	}
	for _, subscriber := range body.Subscribers {
		if subscriber.Email == "b@example.com" && subscriber.UnsubscribedAt == nil {
			t.Fatal("expected unsubscribedAt for b@example.com")
		}
		if subscriber.Email == "a@example.com" && subscriber.Source != "footer" {
			t.Fatalf("unexpected source %q", subscriber.Source)
		}
	}
}
