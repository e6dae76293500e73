package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/dailyclaim/models"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	fileLayout = "20060102_150405"
	rule       = "============================================================"
	thinRule   = "------------------------------------------------------------"
)

// FileName returns the artifact name for a run started at s.StartedAt.
func FileName(s *Summary) string {
	return "checkin_report_" + s.StartedAt.Format(fileLayout) + ".txt"
}

// WriteFile writes the text report into dir and returns its path.
func WriteFile(dir string, s *Summary) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, FileName(s))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	w := bufio.NewWriter(f)
	Render(w, s)
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

// Render writes the plain-text report.
func Render(w io.Writer, s *Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Daily check-in report: %s\n", s.Site)
	fmt.Fprintf(w, "Run:      %s\n", s.RunID)
	fmt.Fprintf(w, "Started:  %s\n", s.StartedAt.Format(timeLayout))
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished: %s\n", s.FinishedAt.Format(timeLayout))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📊 Statistics")
	fmt.Fprintf(w, "Accounts:      %d\n", s.Total())
	fmt.Fprintf(w, "Succeeded:     %d\n", s.Succeeded())
	fmt.Fprintf(w, "Failed:        %d\n", s.Failed())
	fmt.Fprintf(w, "Success rate:  %.1f%%\n", s.SuccessRate())
	fmt.Fprintf(w, "Mean duration: %s\n", s.MeanDuration().Round(100*time.Millisecond))
	if total := s.RewardTotalText(); total != "" {
		fmt.Fprintf(w, "Total reward:  %s\n", total)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📋 Accounts")
	fmt.Fprintln(w, thinRule)
	for i, o := range s.Outcomes() {
		icon := "❌"
		if o.Succeeded {
			icon = "✅"
		}
		fmt.Fprintf(w, "\n%d. %s %s\n", i+1, icon, o.Identifier)
		fmt.Fprintf(w, "   Status: %s\n", o.Status)
		if amount := Amount(o); amount != "" {
			fmt.Fprintf(w, "   Amount: %s\n", amount)
		}
		if o.Error != "" {
			fmt.Fprintf(w, "   Note:   %s\n", oneLine(o.Error))
		}
		fmt.Fprintf(w, "   Time:   %s\n", o.FinishedAt.Format(timeLayout))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
}

// Amount is the reward of an outcome if one was parsed, otherwise its
// balance summary.
func Amount(o models.AccountOutcome) string {
	if o.Extracted.Empty() {
		return ""
	}
	if o.Extracted.Reward != "" {
		return o.Extracted.Reward
	}
	return o.Extracted.Summary
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
