package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"veas/site/internal/email"
	"veas/site/internal/store"
)

type fakeStore struct {
	insertFn func(context.Context, store.ContactSubmission) error
	inserted []store.ContactSubmission
}

func (f *fakeStore) InsertSubmission(ctx context.Context, sub store.ContactSubmission) error {
	f.inserted = append(f.inserted, sub)
	if f.insertFn != nil {
		return f.insertFn(ctx, sub)
	}
	return nil
}

type fakeSheet struct {
	appendFn func(context.Context, []any) error
	rows     [][]any
}

func (f *fakeSheet) AppendRow(ctx context.Context, row []any) error {
	f.rows = append(f.rows, row)
	if f.appendFn != nil {
		return f.appendFn(ctx, row)
	}
	return nil
}

type fakeNotifier struct {
	notifyFn  func(context.Context, email.Enquiry) error
	enquiries []email.Enquiry
}

func (f *fakeNotifier) NotifyEnquiry(ctx context.Context, enquiry email.Enquiry) error {
	f.enquiries = append(f.enquiries, enquiry)
	if f.notifyFn != nil {
		return f.notifyFn(ctx, enquiry)
	}
	return nil
}

var fixedNow = time.Date(2026, time.July, 1, 8, 15, 30, 0, time.UTC)

func validSubmission() Submission {
	return Submission{
		Name:           "Jo Planner",
		Company:        "Planner & Co",
		Email:          "jo@example.com",
		Telephone:      "01234 567890",
		ProjectAddress: "1 High Street, Bristol",
		Message:        "We need a noise impact assessment for a new development.",
		GDPRConsent:    "on",
	}
}

func newTestRelay(t *testing.T, st *fakeStore, sheet *fakeSheet, notifier *fakeNotifier, logger *zap.Logger) *Relay {
	t.Helper()
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	opts := []Option{WithLocation(london), WithClock(func() time.Time { return fixedNow }), WithLogger(logger)}
	if sheet != nil {
		opts = append(opts, WithSheet(sheet))
	}
	if notifier != nil {
		opts = append(opts, WithNotifier(notifier))
	}
	return New(st, opts...)
}

func TestSubmitSuccess(t *testing.T) {
	st, sheet, notifier := &fakeStore{}, &fakeSheet{}, &fakeNotifier{}
	r := newTestRelay(t, st, sheet, notifier, nil)

	require.NoError(t, r.Submit(context.Background(), validSubmission()))

	require.Len(t, st.inserted, 1)
	require.Len(t, sheet.rows, 1)
	require.Len(t, notifier.enquiries, 1)

	saved := st.inserted[0]
	assert.True(t, saved.GDPRConsent)
	assert.True(t, strings.HasPrefix(saved.ID, "sub_"))
	assert.Equal(t, "01/07/2026, 09:15:30", saved.SubmittedAtLocal, "BST is UTC+1")

	assert.Equal(t, []any{
		"01/07/2026, 09:15:30",
		"Jo Planner",
		"Planner & Co",
		"jo@example.com",
		"01234 567890",
		"1 High Street, Bristol",
		"We need a noise impact assessment for a new development.",
		"Yes",
	}, sheet.rows[0])

	assert.Equal(t, "jo@example.com", notifier.enquiries[0].Email)
	assert.Equal(t, "01/07/2026, 09:15:30", notifier.enquiries[0].SubmittedAt)
}

func TestSubmitMissingEmailTouchesNothing(t *testing.T) {
	st, sheet, notifier := &fakeStore{}, &fakeSheet{}, &fakeNotifier{}
	r := newTestRelay(t, st, sheet, notifier, nil)

	sub := validSubmission()
	sub.Email = ""
	err := r.Submit(context.Background(), sub)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Please enter a valid email address."}, verr.Fields["email"])
	assert.Empty(t, st.inserted)
	assert.Empty(t, sheet.rows)
	assert.Empty(t, notifier.enquiries)
}

func TestSubmitPersistFailureShortCircuits(t *testing.T) {
	st := &fakeStore{insertFn: func(context.Context, store.ContactSubmission) error {
		return errors.New("database unavailable")
	}}
	sheet, notifier := &fakeSheet{}, &fakeNotifier{}
	r := newTestRelay(t, st, sheet, notifier, nil)

	err := r.Submit(context.Background(), validSubmission())
	assert.ErrorIs(t, err, ErrPersist)
	assert.Empty(t, sheet.rows, "spreadsheet must not be touched after a failed insert")
	assert.Empty(t, notifier.enquiries)
}

func TestSubmitAppendFailureSkipsEmail(t *testing.T) {
	st := &fakeStore{}
	sheet := &fakeSheet{appendFn: func(context.Context, []any) error { return errors.New("quota exceeded") }}
	notifier := &fakeNotifier{}
	r := newTestRelay(t, st, sheet, notifier, nil)

	err := r.Submit(context.Background(), validSubmission())
	assert.ErrorIs(t, err, ErrAppend)
	assert.Len(t, st.inserted, 1, "stored row is not rolled back")
	assert.Empty(t, notifier.enquiries)
}

func TestSubmitEmailFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	st, sheet := &fakeStore{}, &fakeSheet{}
	notifier := &fakeNotifier{notifyFn: func(context.Context, email.Enquiry) error { return errors.New("smtp timeout") }}
	r := newTestRelay(t, st, sheet, notifier, zap.New(core))

	require.NoError(t, r.Submit(context.Background(), validSubmission()))
	assert.Len(t, st.inserted, 1)
	assert.Len(t, sheet.rows, 1)
	assert.Equal(t, 1, logs.FilterMessage("notification email failed, submission kept").Len())
}

func TestSubmitWithoutOptionalSteps(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	st := &fakeStore{}
	r := newTestRelay(t, st, nil, nil, zap.New(core))

	require.NoError(t, r.Submit(context.Background(), validSubmission()))
	assert.Len(t, st.inserted, 1)
	assert.Equal(t, 2, logs.Len())
}

func TestSubmitKeepsInputAsGiven(t *testing.T) {
	st := &fakeStore{}
	r := newTestRelay(t, st, nil, nil, nil)

	sub := validSubmission()
	sub.Name = " a "
	sub.Message = strings.Repeat("Traffic noise from the ring road. ", 200)
	require.NoError(t, r.Submit(context.Background(), sub))
	require.Len(t, st.inserted, 1)
	assert.Equal(t, " a ", st.inserted[0].Name)
	assert.Equal(t, sub.Message, st.inserted[0].Message)
}

func TestSubmitConsentMustBeExact(t *testing.T) {
	st := &fakeStore{}
	r := newTestRelay(t, st, nil, nil, nil)

	sub := validSubmission()
	sub.GDPRConsent = " on "
	err := r.Submit(context.Background(), sub)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "gdprConsent")
	assert.Empty(t, st.inserted)
}
