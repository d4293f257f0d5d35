package sponsorship

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
	"github.com/codr1/Clubhouse/internal/email"
	"github.com/codr1/Clubhouse/internal/testutil"
)

type fakeSender struct {
	sent chan email.Envelope
}

func (f *fakeSender) Deliver(ctx context.Context, envelope email.Envelope) error {
	f.sent <- envelope
	return nil
}

func setupSponsorshipTest(t *testing.T, siteInfo apiutil.Site) *fakeSender {
	t.Helper()

	database := testutil.NewTestDB(t)
	sender := &fakeSender{sent: make(chan email.Envelope, 8)}
	InitHandlers(database.Queries, sender, nil, siteInfo)

	prevNow := now
	now = func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		now = prevNow
		InitHandlers(nil, nil, nil, apiutil.Site{})
	})
	return sender
}

func submit(body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	HandleSubmitInquiry(rec, httptest.NewRequest(http.MethodPost, "/api/sponsorship", strings.NewReader(body)))
	return rec
}

func collectEnvelopes(t *testing.T, sender *fakeSender, n int) map[string]email.Envelope {
	t.Helper()

	got := make(map[string]email.Envelope)
	for i := 0; i < n; i++ {
		select {
		case envelope := <-sender.sent:
			got[envelope.To] = envelope
		case <-time.After(time.Second):
			t.Fatalf("expected %d emails, got %d", n, len(got))
		}
	}
	return got
}

func TestHandleSubmitInquiryNotifiesClubAndSender(t *testing.T) {
	sender := setupSponsorshipTest(t, apiutil.Site{ClubName: "Riverside FC", ClubInbox: "committee@riverside.example", PhoneRegion: "AU"})

	rec := submit(`{
		"companyName": "Acme Plumbing",
		"contactName": "Pat",
		"email": "Pat@Acme.example.com",
		"phone": "(02) 9250 7111",
		"tier": "Gold",
		"message": "We'd like to sponsor the U12s."
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	envelopes := collectEnvelopes(t, sender, 2)
	notification, ok := envelopes["committee@riverside.example"]
	if !ok {
		t.Fatalf("expected club notification, got %v", envelopes)
	}
	if notification.ReplyTo != "pat@acme.example.com" {
		t.Fatalf("expected reply-to the enquirer, got %q", notification.ReplyTo)
	}
	if _, ok := envelopes["pat@acme.example.com"]; !ok {
		t.Fatalf("expected acknowledgement, got %v", envelopes)
	}

	list := httptest.NewRecorder()
	HandleListInquiries(list, httptest.NewRequest(http.MethodGet, "/api/admin/sponsorship", nil))
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d", list.Code)
	}
	var body struct {
		Inquiries []inquiryResponse `json:"inquiries"`
		Total     int               `json:"total"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("expected 1 inquiry, got %d", body.Total)
	}
	if body.Inquiries[0].Phone != "+61292507111" || body.Inquiries[0].Tier != "Gold" {
		t.Fatalf("unexpected inquiry: %+v", body.Inquiries[0])
	}
}

func TestHandleSubmitInquiryWithoutInbox(t *testing.T) {
	sender := setupSponsorshipTest(t, apiutil.Site{ClubName: "Riverside FC"})

	rec := submit(`{"companyName":"Acme","contactName":"Pat","email":"pat@acme.example.com","message":"Hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	envelopes := collectEnvelopes(t, sender, 1)
	if _, ok := envelopes["pat@acme.example.com"]; !ok {
		t.Fatalf("expected acknowledgement only, got %v", envelopes)
	}
}

func TestHandleSubmitInquiryValidation(t *testing.T) {
	setupSponsorshipTest(t, apiutil.Site{PhoneRegion: "AU"})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing company", body: `{"contactName":"Pat","email":"pat@acme.com","message":"Hi"}`, field: "companyName"},
		{name: "missing contact", body: `{"companyName":"Acme","email":"pat@acme.com","message":"Hi"}`, field: "contactName"},
		{name: "bad email", body: `{"companyName":"Acme","contactName":"Pat","email":"pat","message":"Hi"}`, field: "email"},
		{name: "bad phone", body: `{"companyName":"Acme","contactName":"Pat","email":"pat@acme.com","phone":"123","message":"Hi"}`, field: "phone"},
		{name: "missing message", body: `{"companyName":"Acme","contactName":"Pat","email":"pat@acme.com","message":"  "}`, field: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := submit(tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var body apiutil.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Field != tt.field {
				t.Fatalf("field = %q, want %q", body.Field, tt.field)
			}
		})
	}
}
