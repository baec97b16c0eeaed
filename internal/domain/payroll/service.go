package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/platform/storage"
)

type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, message string) error
}

type Service struct {
	store   StoreAPI
	objects storage.Store
	notify  Notifier
	urlTTL  time.Duration
}

func NewService(store StoreAPI, objects storage.Store, notify Notifier, urlTTL time.Duration) *Service {
	if urlTTL <= 0 {
		urlTTL = 365 * 24 * time.Hour
	}
	return &Service{store: store, objects: objects, notify: notify, urlTTL: urlTTL}
}

type UploadInput struct {
	EmployeeID  string
	Year        int
	Month       int
	ContentType string
	Data        []byte
}

// Upload stores a payslip PDF and records it for its period. The role check
// runs before anything else so an unauthorized call cannot leave a file
// behind, and the database row is written only after the signed URL exists.
func (s *Service) Upload(ctx context.Context, actor auth.Actor, in UploadInput) (*PayslipDetail, error) {
	if actor.Capability() != auth.Privileged {
		return nil, ErrForbidden
	}
	if err := ValidatePeriod(in.Year, in.Month); err != nil {
		return nil, err
	}
	if err := ValidateFile(in.ContentType, len(in.Data)); err != nil {
		return nil, err
	}
	employee, err := s.store.Employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	objectPath := ObjectPath(in.EmployeeID, in.Year, in.Month)
	err = s.objects.Upload(ctx, storage.BucketPayslips, objectPath, in.Data, storage.UploadOptions{
		ContentType: in.ContentType,
		Upsert:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("upload payslip: %w", err)
	}

	url, err := s.objects.SignedURL(storage.BucketPayslips, objectPath, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("sign payslip url: %w", err)
	}

	detail, err := s.store.Upsert(ctx, in.EmployeeID, in.Year, in.Month, url)
	if err != nil {
		return nil, err
	}

	s.sendNotification(ctx, employee.UserID, "payslip_uploaded", "Nuevo Recibo de Sueldo",
		fmt.Sprintf("Tu recibo de %s ya está disponible para firmar.", PeriodLabel(in.Year, in.Month)))
	return detail, nil
}

// Sign marks a payslip as signed by its owner. Signing is personal: even
// privileged actors cannot sign on an employee's behalf. Signing an already
// signed payslip is a no-op and succeeds, so retries are harmless.
func (s *Service) Sign(ctx context.Context, actor auth.Actor, payslipID string) (*PayslipDetail, error) {
	detail, err := s.store.Get(ctx, payslipID)
	if err != nil {
		return nil, err
	}
	if detail.EmployeeUserID != actor.UserID {
		return nil, ErrForbidden
	}
	if detail.State == StateSigned {
		return detail, nil
	}

	if _, err := s.store.MarkSigned(ctx, payslipID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, payslipID)
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, payslipID string) (*PayslipDetail, error) {
	detail, err := s.store.Get(ctx, payslipID)
	if err != nil {
		return nil, err
	}
	if actor.Capability() != auth.Privileged && detail.EmployeeUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return detail, nil
}

// List returns the actor's own payslips, or everyone's when privileged.
// year filters the listing; zero means all years.
func (s *Service) List(ctx context.Context, actor auth.Actor, employeeID string, year, limit, offset int) ([]PayslipDetail, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if actor.Capability() == auth.Privileged {
		if employeeID != "" {
			return s.store.ListByEmployee(ctx, employeeID, year, limit, offset)
		}
		return s.store.ListAll(ctx, year, limit, offset)
	}
	own, err := s.store.EmployeeIDByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListByEmployee(ctx, own, year, limit, offset)
}

// Generate renders a payslip PDF from the employee record and stores it
// through the same path as an external upload.
func (s *Service) Generate(ctx context.Context, actor auth.Actor, employeeID string, year, month int) (*PayslipDetail, error) {
	if actor.Capability() != auth.Privileged {
		return nil, ErrForbidden
	}
	if err := ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	employee, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	data, err := renderPayslipPDF(employee, year, month)
	if err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return s.Upload(ctx, actor, UploadInput{
		EmployeeID:  employeeID,
		Year:        year,
		Month:       month,
		ContentType: "application/pdf",
		Data:        data,
	})
}

func (s *Service) sendNotification(ctx context.Context, userID, kind, title, message string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(ctx, userID, kind, title, message); err != nil {
		slog.Warn("payslip notification failed", "userId", userID, "kind", kind, "error", err)
	}
}
