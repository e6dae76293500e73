package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// PrintTable writes a per-account table followed by a totals line.
func PrintTable(w io.Writer, s *Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Account", "Result", "Status", "Amount", "Duration")

	for i, o := range s.Outcomes() {
		result := "FAIL"
		if o.Succeeded {
			result = "OK"
		}
		row := []string{
			strconv.Itoa(i + 1),
			o.Identifier,
			result,
			o.Status,
			Amount(o),
			o.Duration.Round(100 * time.Millisecond).String(),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%d/%d succeeded (%.1f%%) in %s\n",
		s.Succeeded(), s.Total(), s.SuccessRate(), s.Elapsed().Round(time.Second)); err != nil {
		return err
	}
	if total := s.RewardTotalText(); total != "" {
		if _, err := fmt.Fprintf(w, "Total reward: %s\n", total); err != nil {
			return err
		}
	}
	return nil
}
