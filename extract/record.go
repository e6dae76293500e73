package extract

import (
	"strings"

	"github.com/use-agent/dailyclaim/models"
)

// Field names an extracted value.
type Field string

const (
	FieldBalance     Field = "remaining_balance"
	FieldUsed        Field = "used_amount"
	FieldRequests    Field = "request_count"
	FieldStatsQuota  Field = "statistics_quota"
	FieldStatsCount  Field = "statistics_count"
	FieldStatsTokens Field = "statistics_tokens"
	FieldDisplayName Field = "display_name"
	FieldReward      Field = "reward_amount"
)

// Value is one extracted value tagged with the strategy that produced it.
// A lower Rank wins.
type Value struct {
	Text   string
	Source string
	Rank   int
}

// Record maps fields to their best known value.
type Record map[Field]Value

// Set stores v unless it is empty or the field already holds a value of
// equal or better rank.
func (r Record) Set(f Field, v Value) {
	if strings.TrimSpace(v.Text) == "" {
		return
	}
	if cur, ok := r[f]; ok && cur.Rank <= v.Rank {
		return
	}
	r[f] = v
}

// Merge returns a new record holding, per field, the best-ranked non-empty
// value across all inputs. Inputs are not modified.
func Merge(records ...Record) Record {
	out := make(Record)
	for _, rec := range records {
		for f, v := range rec {
			out.Set(f, v)
		}
	}
	return out
}

// Get returns the text of f, or "".
func (r Record) Get(f Field) string {
	return r[f].Text
}

type summaryPart struct {
	field Field
	label string
}

// summaryOrder is the fixed display order of the one-line summary.
var summaryOrder = []summaryPart{
	{FieldBalance, "💰 Balance"},
	{FieldUsed, "📊 Used"},
	{FieldRequests, "🔢 Requests"},
	{FieldStatsQuota, "📈 Stats quota"},
	{FieldDisplayName, "👤 User"},
	{FieldReward, "🎁 Reward"},
}

// Summary renders the populated fields as one line. An empty record renders
// as "".
func (r Record) Summary() string {
	parts := make([]string, 0, len(summaryOrder))
	for _, p := range summaryOrder {
		text := r.Get(p.field)
		if text == "" {
			continue
		}
		if p.field == FieldStatsQuota && isZeroAmount(text) {
			continue
		}
		parts = append(parts, p.label+": "+text)
	}
	return strings.Join(parts, " | ")
}

// Balance converts the record into the outcome shape. It returns nil for
// an empty record.
func (r Record) Balance() *models.Balance {
	if len(r) == 0 {
		return nil
	}
	b := &models.Balance{
		Summary: r.Summary(),
		Reward:  r.Get(FieldReward),
		Fields:  make(map[string]models.FieldValue, len(r)),
	}
	for f, v := range r {
		b.Fields[string(f)] = models.FieldValue{Text: v.Text, Source: v.Source}
	}
	return b
}

// isZeroAmount reports whether a rendered amount has digits and all are zero.
func isZeroAmount(text string) bool {
	digits := 0
	for _, c := range text {
		if c >= '1' && c <= '9' {
			return false
		}
		if c == '0' {
			digits++
		}
	}
	return digits > 0
}
