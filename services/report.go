package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"rental-notifier/models"
	"rental-notifier/utils"
)

type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// ReasonCount is one row of the rejection breakdown.
type ReasonCount struct {
	Reason string
	Count  int
}

// Rejected returns the total number of rejected listings.
func Rejected(r *models.RunReport) int {
	n := 0
	for _, c := range r.RejectReasons {
		n += c
	}
	return n
}

// SortedReasons orders rejection reasons by count, then name.
func SortedReasons(r *models.RunReport) []ReasonCount {
	out := make([]ReasonCount, 0, len(r.RejectReasons))
	for reason, n := range r.RejectReasons {
		out = append(out, ReasonCount{reason, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// Print writes the run report to w and logs a one-line summary.
func (s *ReportService) Print(w io.Writer, r *models.RunReport) {
	s.logger.Info("[report] Run %s: %d new, %d extracted, %d failed, %d accepted, %d notified",
		r.RunID, r.New, r.Extracted, r.Failed, r.Accepted, r.Notified)

	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 RENTAL RUN REPORT\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Run id        : %s\n", r.RunID)
	fmt.Fprintf(w, "  Duration      : %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	if r.FirstRun {
		fmt.Fprintf(w, "  Notifications : \033[1;33mdisabled (first run)\033[0m\n")
	} else if !r.NotifyEnabled {
		fmt.Fprintf(w, "  Notifications : disabled\n")
	} else {
		fmt.Fprintf(w, "  Notifications : enabled\n")
	}
	fmt.Fprintln(w)

	// Listings
	fmt.Fprintf(w, "\033[1;33m  Listings\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  On index page : \033[1m%d\033[0m\n", r.Discovered)
	fmt.Fprintf(w, "  New           : \033[1m%d\033[0m\n", r.New)
	if r.Retried > 0 {
		fmt.Fprintf(w, "  Retried       : \033[1m%d\033[0m\n", r.Retried)
	}
	fmt.Fprintf(w, "  Extracted     : \033[1;32m%d\033[0m\n", r.Extracted)
	if r.Cached > 0 {
		fmt.Fprintf(w, "  Already stored: \033[1m%d\033[0m\n", r.Cached)
	}
	fmt.Fprintf(w, "  Failed        : \033[1;31m%d\033[0m\n", r.Failed)
	fmt.Fprintln(w)

	// Decisions
	fmt.Fprintf(w, "\033[1;33m  Decisions\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Accepted : \033[1;32m%d\033[0m\n", r.Accepted)
	fmt.Fprintf(w, "  Notified : \033[1;32m%d\033[0m\n", r.Notified)
	fmt.Fprintf(w, "  Rejected : \033[1m%d\033[0m\n", Rejected(r))
	for _, rc := range SortedReasons(r) {
		bar := strings.Repeat("█", min(rc.Count, 30))
		fmt.Fprintf(w, "    %-30s %s (%d)\n", truncate(rc.Reason, 28), bar, rc.Count)
	}
	fmt.Fprintln(w)

	if len(r.FailedIDs) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Failed listings\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, id := range r.FailedIDs {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
