package leave

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/platform/storage"
)

type fakeStore struct {
	types     map[string]LeaveType
	requests  map[string]*RequestDetail
	employees map[string]string // user id -> employee id
	nextID    int
	marks     int // writes attempted via Mark*
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types: map[string]LeaveType{
			"lt-vac": {ID: "lt-vac", Name: "Vacaciones", MaxDaysPerYear: 14},
		},
		requests:  make(map[string]*RequestDetail),
		employees: make(map[string]string),
	}
}

func (f *fakeStore) ListTypes(context.Context) ([]LeaveType, error) {
	var out []LeaveType
	for _, t := range f.types {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetType(_ context.Context, id string) (*LeaveType, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, ErrTypeNotFound
	}
	return &t, nil
}

func (f *fakeStore) Insert(_ context.Context, req *LeaveRequest) (string, error) {
	f.nextID++
	id := fmt.Sprintf("lr-%d", f.nextID)
	detail := &RequestDetail{LeaveRequest: *req}
	detail.ID = id
	detail.CreatedAt = time.Now()
	detail.LeaveTypeName = f.types[req.LeaveTypeID].Name
	for userID, empID := range f.employees {
		if empID == req.EmployeeID {
			detail.EmployeeUserID = userID
		}
	}
	f.requests[id] = detail
	return id, nil
}

func (f *fakeStore) GetRequest(_ context.Context, id string) (*RequestDetail, error) {
	d, ok := f.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeStore) ListByEmployee(_ context.Context, employeeID string, _, _ int) ([]RequestDetail, int, error) {
	var out []RequestDetail
	for _, d := range f.requests {
		if d.EmployeeID == employeeID {
			out = append(out, *d)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) ListAll(_ context.Context, status string, _, _ int) ([]RequestDetail, int, error) {
	var out []RequestDetail
	for _, d := range f.requests {
		if status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) MarkApproved(_ context.Context, requestID, approverUserID string) (bool, error) {
	f.marks++
	d, ok := f.requests[requestID]
	if !ok || d.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	d.Status = StatusApproved
	d.ApprovedBy = &approverUserID
	d.ApprovedAt = &now
	return true, nil
}

func (f *fakeStore) MarkRejected(_ context.Context, requestID, approverUserID, reason string) (bool, error) {
	f.marks++
	d, ok := f.requests[requestID]
	if !ok || d.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	d.Status = StatusRejected
	d.ApprovedBy = &approverUserID
	d.ApprovedAt = &now
	d.RejectionReason = &reason
	return true, nil
}

func (f *fakeStore) MarkCancelled(_ context.Context, requestID, employeeID string) (bool, error) {
	f.marks++
	d, ok := f.requests[requestID]
	if !ok || d.EmployeeID != employeeID || d.Status != StatusPending {
		return false, nil
	}
	d.Status = StatusCancelled
	return true, nil
}

func (f *fakeStore) SetCertificateURL(_ context.Context, requestID string, url *string) error {
	d, ok := f.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	d.CertificateURL = url
	return nil
}

func (f *fakeStore) EmployeeIDByUserID(_ context.Context, userID string) (string, error) {
	id, ok := f.employees[userID]
	if !ok {
		return "", ErrNoEmployee
	}
	return id, nil
}

type fakeObjects struct {
	files     map[string][]byte
	removeErr error
	removed   []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{files: make(map[string][]byte)}
}

func (f *fakeObjects) key(bucket, path string) string { return bucket + "/" + path }

func (f *fakeObjects) Upload(_ context.Context, bucket, path string, data []byte, opts storage.UploadOptions) error {
	k := f.key(bucket, path)
	if _, exists := f.files[k]; exists && !opts.Upsert {
		return storage.ErrObjectExists
	}
	f.files[k] = data
	return nil
}

func (f *fakeObjects) PublicURL(bucket, path string) string {
	return "/files/public/" + bucket + "/" + path
}

func (f *fakeObjects) SignedURL(bucket, path string, _ time.Duration) (string, error) {
	if _, ok := f.files[f.key(bucket, path)]; !ok {
		return "", storage.ErrObjectNotFound
	}
	return "/files/signed/" + bucket + "/" + path + "?exp=1&sig=x", nil
}

func (f *fakeObjects) Remove(_ context.Context, bucket string, paths []string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, p := range paths {
		delete(f.files, f.key(bucket, p))
		f.removed = append(f.removed, p)
	}
	return nil
}

func (f *fakeObjects) Open(bucket, path string) (io.ReadCloser, string, error) {
	data, ok := f.files[f.key(bucket, path)]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "application/octet-stream", nil
}

func (f *fakeObjects) PathFromPublicURL(bucket, url string) (string, bool) {
	prefix := "/files/public/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

type notice struct {
	userID, kind, title, message string
}

type fakeNotifier struct {
	sent []notice
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, userID, kind, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, notice{userID, kind, title, message})
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeObjects, *fakeNotifier) {
	store := newFakeStore()
	objects := newFakeObjects()
	notifier := &fakeNotifier{}
	store.employees["user-1"] = "emp-1"
	store.employees["user-2"] = "emp-2"
	return NewService(store, objects, notifier), store, objects, notifier
}

var (
	employee   = auth.Actor{UserID: "user-1", Role: auth.RoleEmployee}
	otherEmp   = auth.Actor{UserID: "user-2", Role: auth.RoleEmployee}
	employer   = auth.Actor{UserID: "boss-1", Role: auth.RoleEmployer}
	submission = SubmitInput{
		LeaveTypeID: "lt-vac",
		StartDate:   date(2024, 1, 10),
		EndDate:     date(2024, 1, 12),
		Reason:      "viaje familiar",
	}
)

func TestSubmitComputesDaysAndStartsPending(t *testing.T) {
	svc, _, _, _ := newTestService()

	got, err := svc.Submit(context.Background(), employee, submission)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.DaysRequested != 3 {
		t.Errorf("days = %d, want 3", got.DaysRequested)
	}
	if got.EmployeeID != "emp-1" {
		t.Errorf("employee = %s, want emp-1 (resolved from actor)", got.EmployeeID)
	}
}

func TestSubmitRejectsFilingForSomeoneElse(t *testing.T) {
	svc, _, _, _ := newTestService()

	in := submission
	in.EmployeeID = "emp-2"
	if _, err := svc.Submit(context.Background(), employee, in); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestSubmitRejectsUnknownLeaveType(t *testing.T) {
	svc, _, _, _ := newTestService()

	in := submission
	in.LeaveTypeID = "lt-nope"
	if _, err := svc.Submit(context.Background(), employee, in); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("got %v, want ErrTypeNotFound", err)
	}
}

func TestApproveNotifiesEmployeeOnce(t *testing.T) {
	svc, _, _, notifier := newTestService()
	req, err := svc.Submit(context.Background(), employee, submission)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := svc.Approve(context.Background(), employer, req.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.userID != "user-1" || n.title != "Licencia Aprobada" {
		t.Errorf("notification = %+v", n)
	}

	// A second decision loses the conditional update and must not notify again.
	if _, err := svc.Approve(context.Background(), employer, req.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("second approve: got %v, want ErrNotPending", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("got %d notifications after repeat approve, want 1", len(notifier.sent))
	}
}

func TestApproveRequiresPrivilege(t *testing.T) {
	svc, _, _, _ := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)

	if _, err := svc.Approve(context.Background(), employee, req.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestApproveSurvivesNotifierFailure(t *testing.T) {
	svc, store, _, notifier := newTestService()
	notifier.err = errors.New("smtp down")
	req, _ := svc.Submit(context.Background(), employee, submission)

	if _, err := svc.Approve(context.Background(), employer, req.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got, _ := store.GetRequest(context.Background(), req.ID)
	if got.Status != StatusApproved {
		t.Errorf("status = %s, want approved despite notifier failure", got.Status)
	}
}

func TestRejectRequiresReasonBeforeAnyChange(t *testing.T) {
	svc, store, _, notifier := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)

	if _, err := svc.Reject(context.Background(), employer, req.ID, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("got %v, want ErrReasonRequired", err)
	}
	got, _ := store.GetRequest(context.Background(), req.ID)
	if got.Status != StatusPending {
		t.Errorf("status = %s, want still pending", got.Status)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("got %d notifications, want 0", len(notifier.sent))
	}
}

func TestRejectRecordsReasonAndNotifies(t *testing.T) {
	svc, _, _, notifier := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)

	got, err := svc.Reject(context.Background(), employer, req.ID, "sin cobertura en el equipo")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "sin cobertura en el equipo" {
		t.Errorf("rejection reason = %v", got.RejectionReason)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].title != "Licencia Rechazada" {
		t.Errorf("notifications = %+v", notifier.sent)
	}
	if !strings.Contains(notifier.sent[0].message, "sin cobertura en el equipo") {
		t.Errorf("message %q missing reason", notifier.sent[0].message)
	}
}

func TestCancelOnlyByOwnerAndOnlyPending(t *testing.T) {
	svc, _, _, _ := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)

	if _, err := svc.Cancel(context.Background(), otherEmp, req.ID); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("foreign cancel: got %v, want ErrNotCancellable", err)
	}

	got, err := svc.Cancel(context.Background(), employee, req.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	if _, err := svc.Cancel(context.Background(), employee, req.ID); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("repeat cancel: got %v, want ErrNotCancellable", err)
	}
}

func TestTerminalStatusBlocksWriteBeforeStore(t *testing.T) {
	svc, store, _, _ := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)
	if _, err := svc.Cancel(context.Background(), employee, req.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	writes := store.marks

	if _, err := svc.Approve(context.Background(), employer, req.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("approve cancelled: got %v, want ErrNotPending", err)
	}
	if _, err := svc.Reject(context.Background(), employer, req.ID, "tarde"); !errors.Is(err, ErrNotPending) {
		t.Errorf("reject cancelled: got %v, want ErrNotPending", err)
	}
	if store.marks != writes {
		t.Errorf("store writes = %d, want %d: terminal status must be refused before the update", store.marks, writes)
	}
}

func TestCancelApprovedRequestFails(t *testing.T) {
	svc, _, _, _ := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)
	if _, err := svc.Approve(context.Background(), employer, req.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), employee, req.ID); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("got %v, want ErrNotCancellable", err)
	}
}

func TestAttachCertificateOnlyOnApprovedOwnRequest(t *testing.T) {
	svc, store, objects, _ := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)

	upload := CertificateUpload{FileName: "certificado.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}

	if _, err := svc.AttachCertificate(context.Background(), employee, req.ID, upload); !errors.Is(err, ErrNotApproved) {
		t.Errorf("pending request: got %v, want ErrNotApproved", err)
	}

	if _, err := svc.Approve(context.Background(), employer, req.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := svc.AttachCertificate(context.Background(), otherEmp, req.ID, upload); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign attach: got %v, want ErrForbidden", err)
	}

	url, err := svc.AttachCertificate(context.Background(), employee, req.ID, upload)
	if err != nil {
		t.Fatalf("AttachCertificate: %v", err)
	}
	if !strings.HasPrefix(url, "/files/public/licencias/user-1/") {
		t.Errorf("certificate url = %q", url)
	}
	got, _ := store.GetRequest(context.Background(), req.ID)
	if got.CertificateURL == nil || *got.CertificateURL != url {
		t.Errorf("stored certificate url = %v, want %q", got.CertificateURL, url)
	}
	if len(objects.files) != 1 {
		t.Errorf("got %d stored objects, want 1", len(objects.files))
	}
}

func TestRemoveCertificateDeletesObjectBeforeClearingReference(t *testing.T) {
	svc, store, objects, _ := newTestService()
	req, _ := svc.Submit(context.Background(), employee, submission)
	if _, err := svc.Approve(context.Background(), employer, req.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	upload := CertificateUpload{FileName: "certificado.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
	if _, err := svc.AttachCertificate(context.Background(), employee, req.ID, upload); err != nil {
		t.Fatalf("AttachCertificate: %v", err)
	}

	// While the delete fails the reference must stay so the file can be found.
	objects.removeErr = errors.New("storage unavailable")
	if err := svc.RemoveCertificate(context.Background(), employee, req.ID); err == nil {
		t.Fatal("expected error when storage delete fails")
	}
	got, _ := store.GetRequest(context.Background(), req.ID)
	if got.CertificateURL == nil {
		t.Fatal("certificate reference cleared although delete failed")
	}

	objects.removeErr = nil
	if err := svc.RemoveCertificate(context.Background(), employee, req.ID); err != nil {
		t.Fatalf("RemoveCertificate: %v", err)
	}
	got, _ = store.GetRequest(context.Background(), req.ID)
	if got.CertificateURL != nil {
		t.Errorf("certificate url = %v, want cleared", got.CertificateURL)
	}
	if len(objects.files) != 0 {
		t.Errorf("got %d stored objects, want 0", len(objects.files))
	}

	if err := svc.RemoveCertificate(context.Background(), employee, req.ID); !errors.Is(err, ErrNoCertificate) {
		t.Errorf("repeat remove: got %v, want ErrNoCertificate", err)
	}
}

func TestListScopesByCapability(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Submit(context.Background(), employee, submission); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), otherEmp, submission); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	own, total, err := svc.List(context.Background(), employee, "", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(own) != 1 || own[0].EmployeeID != "emp-1" {
		t.Errorf("employee list = %d items (total %d)", len(own), total)
	}

	all, total, err := svc.List(context.Background(), employer, "", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("employer list = %d items (total %d), want 2", len(all), total)
	}
}
