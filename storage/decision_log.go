package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"rental-notifier/models"
)

var decisionHeader = []string{
	"run_id", "decided_at", "listing_id", "accepted", "reason", "detail", "channel", "price",
}

// DecisionLog appends one CSV row per policy decision.
// It is safe for concurrent use.
type DecisionLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	now    func() time.Time
}

// NewDecisionLog opens (or creates) the CSV file at the given path in append
// mode, writing the header row only for a new file. Intermediate directories
// are created automatically.
func NewDecisionLog(path string) (*DecisionLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(decisionHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &DecisionLog{file: f, writer: w, now: time.Now}, nil
}

// WriteDecision appends and flushes a single decision row.
func (d *DecisionLog) WriteDecision(runID string, l *models.Listing, dec models.Decision) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := []string{
		runID,
		d.now().Format(time.RFC3339),
		l.ID,
		strconv.FormatBool(dec.Accepted),
		dec.Reason,
		dec.Detail,
		dec.Channel,
		strconv.FormatFloat(l.Price, 'f', 2, 64),
	}
	if err := d.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	d.writer.Flush()
	return d.writer.Error()
}

// Close flushes and closes the underlying file.
func (d *DecisionLog) Close() error {
	d.writer.Flush()
	return d.file.Close()
}
