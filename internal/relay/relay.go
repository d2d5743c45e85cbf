// Package relay validates contact form submissions and forwards them to the
// database, the enquiries spreadsheet and the notification mailer, in that order.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"veas/site/internal/email"
	"veas/site/internal/store"
	"veas/site/internal/util"
)

var (
	ErrPersist = errors.New("store submission")
	ErrAppend  = errors.New("append spreadsheet row")
)

type SubmissionStore interface {
	InsertSubmission(ctx context.Context, submission store.ContactSubmission) error
}

type RowAppender interface {
	AppendRow(ctx context.Context, row []any) error
}

type Notifier interface {
	NotifyEnquiry(ctx context.Context, enquiry email.Enquiry) error
}

type Relay struct {
	store     SubmissionStore
	sheet     RowAppender
	notifier  Notifier
	validator *Validator
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*Relay)

// WithSheet enables the spreadsheet step. Without it the step is skipped.
func WithSheet(sheet RowAppender) Option {
	return func(r *Relay) { r.sheet = sheet }
}

// WithNotifier enables the email step. Without it the step is skipped.
func WithNotifier(notifier Notifier) Option {
	return func(r *Relay) { r.notifier = notifier }
}

func WithLocation(loc *time.Location) Option {
	return func(r *Relay) {
		if loc != nil {
			r.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(submissions SubmissionStore, opts ...Option) *Relay {
	r := &Relay{
		store:     submissions,
		validator: NewValidator(),
		location:  time.UTC,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit validates sub and runs persist, spreadsheet append and email in
// sequence. Validation failures return *ValidationError before any side effect.
// A persist failure returns ErrPersist without touching the spreadsheet; an
// append failure returns ErrAppend without sending email. Email failures are
// logged and do not fail the submission.
func (r *Relay) Submit(ctx context.Context, sub Submission) error {
	if err := r.validator.Validate(sub); err != nil {
		return err
	}

	submittedAt := r.now()
	local := submittedAt.In(r.location).Format(TimestampLayout)
	id := util.NewID("sub")
	logger := r.logger.With(zap.String("submission_id", id))

	err := r.store.InsertSubmission(ctx, store.ContactSubmission{
		ID:               id,
		Name:             sub.Name,
		Company:          sub.Company,
		Email:            sub.Email,
		Telephone:        sub.Telephone,
		ProjectAddress:   sub.ProjectAddress,
		Message:          sub.Message,
		GDPRConsent:      sub.GDPRConsent == ConsentGiven,
		SubmittedAt:      submittedAt.UTC(),
		SubmittedAtLocal: local,
	})
	if err != nil {
		logger.Error("contact submission not stored", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	logger.Info("contact submission stored")

	if r.sheet == nil {
		logger.Warn("spreadsheet not configured, skipping row append")
	} else if err := r.sheet.AppendRow(ctx, Row(sub, submittedAt, r.location)); err != nil {
		logger.Error("spreadsheet append failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}

	if r.notifier == nil {
		logger.Warn("mailer not configured, skipping notification emails")
		return nil
	}
	err = r.notifier.NotifyEnquiry(ctx, email.Enquiry{
		Name:           sub.Name,
		Company:        sub.Company,
		Email:          sub.Email,
		Telephone:      sub.Telephone,
		ProjectAddress: sub.ProjectAddress,
		Message:        sub.Message,
		Consent:        sub.GDPRConsent == ConsentGiven,
		SubmittedAt:    local,
	})
	if err != nil {
		logger.Error("notification email failed, submission kept", zap.Error(err))
	}
	return nil
}
