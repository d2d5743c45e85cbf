// Package sheets appends contact submissions to the enquiries spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var ErrNotConfigured = errors.New("spreadsheet not configured")

// Appender writes rows to a fixed range of one spreadsheet. Values are sent
// USER_ENTERED so the timestamp column is parsed as a date by Sheets.
type Appender struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	writeRange    string
}

// New builds an Appender. credentialsFile may be empty, in which case
// application default credentials are used. Extra client options are
// appended last so tests can point the client at a local server.
func New(ctx context.Context, spreadsheetID, writeRange, credentialsFile string, extra ...option.ClientOption) (*Appender, error) {
	if spreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	if writeRange == "" {
		writeRange = "Submissions!A6:H"
	}
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, extra...)

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &Appender{
		values:        gsheets.NewSpreadsheetsValuesService(svc),
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}, nil
}

func (a *Appender) AppendRow(ctx context.Context, row []any) error {
	values := make([]interface{}, len(row))
	copy(values, row)
	_, err := a.values.Append(a.spreadsheetID, a.writeRange, &gsheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", a.writeRange, err)
	}
	return nil
}
