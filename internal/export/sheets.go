package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/models"
)

// SheetsSaver appends one row per saved article to a spreadsheet:
// saved-at timestamp, title, author, site name, url.
type SheetsSaver struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	writeRange    string
	now           func() time.Time
}

// NewSheetsSaver authenticates with the configured access token or
// credentials file. Extra options are applied last.
func NewSheetsSaver(ctx context.Context, cfg config.SheetsConfig, extra ...option.ClientOption) (*SheetsSaver, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("sheets: spreadsheet_id required")
	}
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case strings.TrimSpace(cfg.AccessToken) != "":
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: %w", err)
	}
	writeRange := cfg.Range
	if writeRange == "" {
		writeRange = "Sheet1!A:E"
	}
	return &SheetsSaver{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		writeRange:    writeRange,
		now:           time.Now,
	}, nil
}

// Save appends a row for a.
func (s *SheetsSaver) Save(ctx context.Context, a models.Article) error {
	row := []interface{}{
		s.now().UTC().Format(time.RFC3339),
		a.Title,
		a.Author,
		a.SiteName,
		a.URL,
	}
	_, err := s.values.Append(s.spreadsheetID, s.writeRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}
	return nil
}
