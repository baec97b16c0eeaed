package whatsapp

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/leave"
)

type fakeStore struct {
	messages  []Message
	phones    map[string][2]string // phone -> user id, full name
	nextID    int
	lookupErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{phones: map[string][2]string{
		"+54 11 5555-0001": {"user-1", "Ana López"},
	}}
}

func (f *fakeStore) LogMessage(_ context.Context, m *Message) (string, error) {
	f.nextID++
	copied := *m
	copied.ID = strconv.Itoa(f.nextID)
	copied.CreatedAt = time.Now()
	f.messages = append(f.messages, copied)
	return copied.ID, nil
}

func (f *fakeStore) History(_ context.Context, phone string, _ int) ([]Message, error) {
	var out []Message
	for _, m := range f.messages {
		if m.Phone == phone {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListConversations(_ context.Context, _, _ int) ([]Message, int, error) {
	return f.messages, len(f.messages), nil
}

func (f *fakeStore) UserByPhone(_ context.Context, phone string) (string, string, error) {
	if f.lookupErr != nil {
		return "", "", f.lookupErr
	}
	r, ok := f.phones[phone]
	if !ok {
		return "", "", ErrUnknownPhone
	}
	return r[0], r[1], nil
}

type fakeLeaves struct {
	submitted []leave.SubmitInput
	requests  []leave.RequestDetail
	submitErr error
}

func (f *fakeLeaves) Submit(_ context.Context, actor auth.Actor, in leave.SubmitInput) (*leave.RequestDetail, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, in)
	days, err := leave.CalculateDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	d := leave.RequestDetail{LeaveTypeName: "Vacaciones"}
	d.ID = "lr-1"
	d.StartDate = in.StartDate
	d.EndDate = in.EndDate
	d.DaysRequested = days
	d.Status = leave.StatusPending
	f.requests = append(f.requests, d)
	return &d, nil
}

func (f *fakeLeaves) List(_ context.Context, _ auth.Actor, _ string, _, _ int) ([]leave.RequestDetail, int, error) {
	return f.requests, len(f.requests), nil
}

func (f *fakeLeaves) ListTypes(_ context.Context) ([]leave.LeaveType, error) {
	return []leave.LeaveType{
		{ID: "lt-vac", Name: "Vacaciones"},
		{ID: "lt-enf", Name: "Enfermedad"},
	}, nil
}

const knownPhone = "+54 11 5555-0001"

func TestIngestLeaveRequestSubmitsAndConfirms(t *testing.T) {
	store := newFakeStore()
	leaves := &fakeLeaves{}
	svc := NewService(store, leaves)

	reply, err := svc.Ingest(context.Background(), knownPhone, "licencia vacaciones 2024-05-01 2024-05-03 viaje")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(leaves.submitted) != 1 {
		t.Fatalf("got %d submissions, want 1", len(leaves.submitted))
	}
	if leaves.submitted[0].LeaveTypeID != "lt-vac" {
		t.Errorf("leave type = %q", leaves.submitted[0].LeaveTypeID)
	}
	if !strings.Contains(reply, "3 días") {
		t.Errorf("reply %q missing day count", reply)
	}
}

func TestIngestLogsBothDirections(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLeaves{})

	if _, err := svc.Ingest(context.Background(), knownPhone, "hola"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(store.messages) != 2 {
		t.Fatalf("got %d logged messages, want 2", len(store.messages))
	}
	in, out := store.messages[0], store.messages[1]
	if in.Direction != DirectionIn || in.UserID != "user-1" || in.Intent != IntentGreeting {
		t.Errorf("inbound row = %+v", in)
	}
	if out.Direction != DirectionOut || !strings.Contains(out.Body, "Hola Ana") {
		t.Errorf("outbound row = %+v", out)
	}
}

func TestIngestUnknownPhoneStillLogged(t *testing.T) {
	store := newFakeStore()
	leaves := &fakeLeaves{}
	svc := NewService(store, leaves)

	reply, err := svc.Ingest(context.Background(), "+54 11 9999-9999", "licencia vacaciones 2024-05-01 2024-05-02")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.Contains(reply, "No encontramos una cuenta") {
		t.Errorf("reply = %q", reply)
	}
	if len(leaves.submitted) != 0 {
		t.Error("submitted a leave request for an unknown sender")
	}
	if len(store.messages) != 2 || store.messages[0].UserID != "" {
		t.Errorf("messages = %+v", store.messages)
	}
}

func TestIngestLookupFailureIsNotUnknownAccount(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errors.New("user by phone: connection refused")
	leaves := &fakeLeaves{}
	svc := NewService(store, leaves)

	reply, err := svc.Ingest(context.Background(), "+54 11 5555-0001", "licencia vacaciones 2024-05-01 2024-05-02")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if strings.Contains(reply, "No encontramos una cuenta") {
		t.Errorf("store failure answered as unknown account: %q", reply)
	}
	if !strings.Contains(reply, "Intenta de nuevo") {
		t.Errorf("reply = %q, want a retry-later message", reply)
	}
	if len(leaves.submitted) != 0 {
		t.Error("submitted a leave request during a store outage")
	}
}

func TestIngestLeaveWithoutDatesAsksForThem(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeLeaves{})

	reply, err := svc.Ingest(context.Background(), knownPhone, "quiero solicitar vacaciones")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.Contains(reply, "fechas") {
		t.Errorf("reply = %q", reply)
	}
}

func TestIngestLeaveWithoutKindListsOptions(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeLeaves{})

	reply, err := svc.Ingest(context.Background(), knownPhone, "licencia 2024-05-01 2024-05-02")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.Contains(reply, "Vacaciones") || !strings.Contains(reply, "Enfermedad") {
		t.Errorf("reply = %q", reply)
	}
}

func TestIngestStatusSummarizesRequests(t *testing.T) {
	store := newFakeStore()
	leaves := &fakeLeaves{}
	svc := NewService(store, leaves)
	if _, err := svc.Ingest(context.Background(), knownPhone, "licencia vacaciones 2024-05-01 2024-05-03"); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	reply, err := svc.Ingest(context.Background(), knownPhone, "estado")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.Contains(reply, "Vacaciones") || !strings.Contains(reply, "pendiente") {
		t.Errorf("reply = %q", reply)
	}
}

func TestIngestUnknownIntentGetsHelp(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeLeaves{})

	reply, err := svc.Ingest(context.Background(), knownPhone, "cuánto falta para el feriado?")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.Contains(reply, "licencia vacaciones") {
		t.Errorf("reply = %q", reply)
	}
}
