package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
)

// Candidate is one transaction object as returned by the model, before
// validation. Values keep their JSON types.
type Candidate map[string]interface{}

var requiredFields = []string{"date", "description", "amount", "type"}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// parseCandidates decodes a cleaned model response. The response must be a
// JSON array; elements that are not objects are skipped.
func parseCandidates(clean string) ([]Candidate, error) {
	if clean == "" {
		return nil, fmt.Errorf("empty model output")
	}

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()

	var items []interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("unmarshal JSON array: %w", err)
	}

	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, Candidate(obj))
	}
	return out, nil
}

// toTransaction validates a candidate and converts it to a ledger row.
// It returns a descriptive error when the candidate must be dropped.
func (c Candidate) toTransaction(statementID string) (domain.Transaction, error) {
	for _, f := range requiredFields {
		if v, ok := c[f]; !ok || v == nil {
			return domain.Transaction{}, fmt.Errorf("missing required field %q", f)
		}
	}

	dateStr := strings.TrimSpace(stringValue(c["date"]))
	if !isoDate.MatchString(dateStr) {
		return domain.Transaction{}, fmt.Errorf("invalid date %q", dateStr)
	}
	date, err := time.Parse(domain.DateLayout, dateStr)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	return domain.Transaction{
		StatementID: statementID,
		Date:        date,
		Description: strings.TrimSpace(stringValue(c["description"])),
		Amount:      amountValue(c["amount"]),
		Direction:   domain.ParseDirection(stringValue(c["type"])),
	}, nil
}

// stringValue coerces a JSON value to text.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// amountValue coerces a JSON value to a number. Unparseable values yield 0.
func amountValue(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = val
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
