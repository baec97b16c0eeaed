package leave

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/platform/storage"
)

// Notifier delivers an in-app notification. Delivery failures must not undo
// an already-committed decision, so the service only logs them.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, message string) error
}

type Service struct {
	store   StoreAPI
	objects storage.Store
	notify  Notifier
}

func NewService(store StoreAPI, objects storage.Store, notify Notifier) *Service {
	return &Service{store: store, objects: objects, notify: notify}
}

type SubmitInput struct {
	EmployeeID  string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	Reason      string
}

// Submit files a new leave request. Employees can only file for themselves;
// employers and admins may file on behalf of any employee.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, in SubmitInput) (*RequestDetail, error) {
	employeeID := in.EmployeeID
	if actor.Capability() != auth.Privileged {
		own, err := s.store.EmployeeIDByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if employeeID == "" {
			employeeID = own
		} else if employeeID != own {
			return nil, ErrForbidden
		}
	}
	if employeeID == "" {
		return nil, ErrNoEmployee
	}

	days, err := CalculateDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetType(ctx, in.LeaveTypeID); err != nil {
		return nil, err
	}

	req := &LeaveRequest{
		EmployeeID:    employeeID,
		LeaveTypeID:   in.LeaveTypeID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		DaysRequested: days,
		Reason:        strings.TrimSpace(in.Reason),
		Status:        StatusPending,
	}
	id, err := s.store.Insert(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.store.GetRequest(ctx, id)
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, requestID string) (*RequestDetail, error) {
	detail, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Capability() != auth.Privileged && detail.EmployeeUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return detail, nil
}

// List returns the actor's own requests, or every request when the actor is
// privileged. status filters the privileged listing; empty means all.
func (s *Service) List(ctx context.Context, actor auth.Actor, status string, limit, offset int) ([]RequestDetail, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if actor.Capability() == auth.Privileged {
		return s.store.ListAll(ctx, status, limit, offset)
	}
	employeeID, err := s.store.EmployeeIDByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListByEmployee(ctx, employeeID, limit, offset)
}

func (s *Service) ListTypes(ctx context.Context) ([]LeaveType, error) {
	return s.store.ListTypes(ctx)
}

// Approve moves a pending request to approved and notifies the employee.
// The decision is committed by a conditional update, so only one of several
// concurrent decisions lands and only the winner sends a notification.
func (s *Service) Approve(ctx context.Context, actor auth.Actor, requestID string) (*RequestDetail, error) {
	if actor.Capability() != auth.Privileged {
		return nil, ErrForbidden
	}
	current, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, StatusApproved) {
		return nil, ErrNotPending
	}
	// The conditional update re-checks the status, so a concurrent
	// decision between the read and the write still loses cleanly.
	updated, err := s.store.MarkApproved(ctx, requestID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotPending
	}
	detail, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.sendNotification(ctx, detail.EmployeeUserID, "leave_approved", "Licencia Aprobada",
		fmt.Sprintf("Tu solicitud de %s del %s al %s ha sido aprobada.",
			detail.LeaveTypeName, formatDate(detail.StartDate), formatDate(detail.EndDate)))
	return detail, nil
}

// Reject validates the reason before touching the request, then commits the
// decision the same way Approve does.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, requestID, reason string) (*RequestDetail, error) {
	if actor.Capability() != auth.Privileged {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	current, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, StatusRejected) {
		return nil, ErrNotPending
	}
	updated, err := s.store.MarkRejected(ctx, requestID, actor.UserID, reason)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotPending
	}
	detail, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.sendNotification(ctx, detail.EmployeeUserID, "leave_rejected", "Licencia Rechazada",
		fmt.Sprintf("Tu solicitud de %s ha sido rechazada. Motivo: %s",
			detail.LeaveTypeName, reason))
	return detail, nil
}

// Cancel lets the owning employee withdraw a still-pending request. The
// store re-checks ownership and state together in a single statement.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, requestID string) (*RequestDetail, error) {
	employeeID, err := s.store.EmployeeIDByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	current, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, StatusCancelled) {
		return nil, ErrNotCancellable
	}
	updated, err := s.store.MarkCancelled(ctx, requestID, employeeID)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotCancellable
	}
	return s.store.GetRequest(ctx, requestID)
}

type CertificateUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// AttachCertificate stores a medical certificate for an approved request
// owned by the actor and records its public URL on the request.
func (s *Service) AttachCertificate(ctx context.Context, actor auth.Actor, requestID string, upload CertificateUpload) (string, error) {
	detail, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if detail.EmployeeUserID != actor.UserID {
		return "", ErrForbidden
	}
	if detail.Status != StatusApproved {
		return "", ErrNotApproved
	}

	ext := strings.ToLower(path.Ext(upload.FileName))
	if ext == "" {
		ext = ".pdf"
	}
	objectPath := fmt.Sprintf("%s/%s_%d%s", actor.UserID, requestID, time.Now().UnixMilli(), ext)
	err = s.objects.Upload(ctx, storage.BucketLicencias, objectPath, upload.Data, storage.UploadOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload certificate: %w", err)
	}

	url := s.objects.PublicURL(storage.BucketLicencias, objectPath)
	if err := s.store.SetCertificateURL(ctx, requestID, &url); err != nil {
		return "", err
	}
	return url, nil
}

// RemoveCertificate deletes the stored object first and clears the database
// reference only after the delete succeeds, so a failed delete never leaves
// an orphaned file behind a cleared column.
func (s *Service) RemoveCertificate(ctx context.Context, actor auth.Actor, requestID string) error {
	detail, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if detail.EmployeeUserID != actor.UserID {
		return ErrForbidden
	}
	if detail.CertificateURL == nil || *detail.CertificateURL == "" {
		return ErrNoCertificate
	}

	objectPath, ok := s.objects.PathFromPublicURL(storage.BucketLicencias, *detail.CertificateURL)
	if !ok {
		return fmt.Errorf("certificate url %q does not belong to bucket %s", *detail.CertificateURL, storage.BucketLicencias)
	}
	if err := s.objects.Remove(ctx, storage.BucketLicencias, []string{objectPath}); err != nil {
		return fmt.Errorf("remove certificate: %w", err)
	}
	return s.store.SetCertificateURL(ctx, requestID, nil)
}

func (s *Service) sendNotification(ctx context.Context, userID, kind, title, message string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(ctx, userID, kind, title, message); err != nil {
		slog.Warn("leave notification failed", "userId", userID, "kind", kind, "error", err)
	}
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
