// Package sheets wraps the Google Sheets API for the spreadsheet
// export. The wrapper only knows how to list tabs and append rows;
// everything else about the spreadsheet belongs to its consumers.
package sheets

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client is an authenticated Google Sheets client
type Client struct {
	service *sheetsapi.Service
}

// NewClient authenticates with service-account credentials scoped to
// spreadsheet read/write.
func NewClient(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{service: service}, nil
}

// SheetTitles returns the titles of all tabs in the spreadsheet
func (c *Client) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

// AppendRows appends rows after the last data row of the named tab,
// starting from the fixed header range. Values are interpreted by the
// remote service (USER_ENTERED) so dates and numbers keep their types.
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, sheetName string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	valueRange := &sheetsapi.ValueRange{Values: rows}
	writeRange := fmt.Sprintf("%s!A2:M", sheetName)

	_, err := c.service.Spreadsheets.Values.Append(spreadsheetID, writeRange, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append %d rows to %s: %w", len(rows), sheetName, err)
	}

	log.Infof("Appended %d rows to sheet %s", len(rows), sheetName)
	return nil
}
