package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Columns the queue sheet must provide.
const (
	colProjectID    = "ProjectID"
	colStatus       = "Current Status"
	colTechnique    = "Technique"
	colSampleOnsite = "Sample Onsite?"
	colImagingDate  = "Imaging Date"
)

var requiredColumns = []string{colProjectID, colStatus, colTechnique, colSampleOnsite, colImagingDate}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// QueueFetcher retrieves the published queue sheet and extracts the
// scheduling table from it.
type QueueFetcher struct {
	client    *http.Client
	url       string
	headerRow int
	logger    *slog.Logger
}

// NewQueueFetcher creates a fetcher for the configured sheet URL.
func NewQueueFetcher(settings *Settings, logger *slog.Logger) *QueueFetcher {
	return &QueueFetcher{
		client:    &http.Client{Timeout: time.Duration(settings.HTTPTimeoutSeconds) * time.Second},
		url:       settings.QueueURL,
		headerRow: settings.HeaderRow,
		logger:    logger,
	}
}

// FetchTable downloads the published sheet and returns the queue table.
func (f *QueueFetcher) FetchTable(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", f.url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: f.url}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing queue sheet HTML: %w", err)
	}

	return f.extractTable(doc)
}

// extractTable scans the page for the <table> whose header row carries the
// queue columns and converts everything below that row. The published sheet
// renders banner rows above the real header, so the header position is
// configurable (header_row, zero-based).
func (f *QueueFetcher) extractTable(doc *goquery.Document) (*Table, error) {
	var table *Table

	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rows := sel.Find("tr")
		if rows.Length() <= f.headerRow {
			return true
		}

		cols, ok := columnIndexes(cellTexts(rows.Eq(f.headerRow)))
		if !ok {
			return true
		}

		table = &Table{}
		rows.Slice(f.headerRow+1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			if row, ok := f.parseRow(cellTexts(tr), cols); ok {
				table.Rows = append(table.Rows, row)
			}
		})
		return false
	})

	if table == nil {
		return nil, fmt.Errorf("no table with columns %v found at %s", requiredColumns, f.url)
	}

	f.logger.Debug("fetched queue table", "rows", len(table.Rows))
	return table, nil
}

// parseRow converts one sheet row into a Row. Rows without a numeric
// ProjectID (spacers, section banners) are skipped.
func (f *QueueFetcher) parseRow(cells []string, cols map[string]int) (Row, bool) {
	get := func(name string) string {
		if i := cols[name]; i < len(cells) {
			return cells[i]
		}
		return ""
	}

	id, err := strconv.Atoi(get(colProjectID))
	if err != nil {
		f.logger.Debug("skipping row without numeric ProjectID", "cell", get(colProjectID))
		return Row{}, false
	}

	return Row{
		ProjectID:    id,
		Status:       get(colStatus),
		Technique:    get(colTechnique),
		SampleOnsite: get(colSampleOnsite) == "Yes",
		ImagingDate:  get(colImagingDate),
	}, true
}

// cellTexts returns the trimmed text of every cell in a row. Published
// sheets prefix each row with a <th> row-number cell, so both th and td
// count toward column positions.
func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

// columnIndexes maps the required column names to their positions in the
// header row.
func columnIndexes(header []string) (map[string]int, bool) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, false
		}
	}
	return cols, true
}
