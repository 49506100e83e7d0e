package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
)

// MockModelClient is a mock implementation of ModelClient for testing.
type MockModelClient struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockModelClient) Complete(ctx context.Context, prompt string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "[]", nil
}

// firstLine returns the first statement line embedded in a window prompt.
func firstLine(prompt string) string {
	body := strings.TrimPrefix(prompt, windowPromptHeader)
	return strings.SplitN(body, "\n", 2)[0]
}

func TestExtract_MergesWindowsAndDeduplicatesOverlap(t *testing.T) {
	lines := makeLines(70) // windows start at 0, 30, 60

	client := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			switch firstLine(prompt) {
			case "line 0":
				return `[{"date":"2024-01-03","description":"ACME PAYROLL","amount":2500,"type":"credit"},
				         {"date":"2024-01-31","description":"Rent","amount":-900,"type":"debit"}]`, nil
			case "line 30":
				// re-extracts the rent row from the overlap, with extra whitespace and sign flip
				return "```json\n" + `[{"date":"2024-01-31","description":" Rent ","amount":900,"type":"debit"},
				         {"date":"2024-02-02","description":"Grocer","amount":-54.2,"type":"debit"}]` + "\n```", nil
			default:
				return `[]`, nil
			}
		},
	}

	ex, err := NewExtractor(client, Options{Concurrency: 3})
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}

	res, err := ex.Extract(context.Background(), "stmt-1", lines)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if res.Windows != 3 {
		t.Errorf("expected 3 windows, got %d", res.Windows)
	}
	if res.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", res.Duplicates)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d: %+v", len(res.Transactions), res.Transactions)
	}

	// window order is preserved, first occurrence kept
	wantDesc := []string{"ACME PAYROLL", "Rent", "Grocer"}
	for i, tx := range res.Transactions {
		if tx.Description != wantDesc[i] {
			t.Errorf("tx %d: description = %q, want %q", i, tx.Description, wantDesc[i])
		}
		if tx.StatementID != "stmt-1" {
			t.Errorf("tx %d: statement id = %q", i, tx.StatementID)
		}
	}
	if res.Transactions[1].Amount != -900 {
		t.Errorf("expected first occurrence amount -900, got %v", res.Transactions[1].Amount)
	}
	if res.Transactions[0].Direction != domain.DirectionCredit {
		t.Errorf("expected credit, got %s", res.Transactions[0].Direction)
	}
}

func TestExtract_BadWindowIsDropped(t *testing.T) {
	lines := makeLines(70)

	client := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			switch firstLine(prompt) {
			case "line 0":
				return `[{"date":"2024-03-01","description":"Salary","amount":1000,"type":"credit"}]`, nil
			case "line 30":
				return `Sorry, here are the transactions: {"date": 2024`, nil
			default:
				return "", errors.New("upstream unavailable")
			}
		},
	}

	ex, _ := NewExtractor(client, Options{Concurrency: 2})
	res, err := ex.Extract(context.Background(), "stmt-2", lines)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.FailedWindows != 2 {
		t.Errorf("expected 2 failed windows, got %d", res.FailedWindows)
	}
	if len(res.Transactions) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(res.Transactions))
	}
}

func TestExtract_ValidationDropsBadCandidates(t *testing.T) {
	client := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return `[
				{"date":"2024-03-01","description":"ok","amount":"1,200.50","type":"CREDIT"},
				{"date":"03/01/2024","description":"us date","amount":1,"type":"debit"},
				{"date":"2024-13-40","description":"impossible date","amount":1,"type":"debit"},
				{"date":"2024-03-02","description":"no type","amount":1},
				{"date":"2024-03-02","description":null,"amount":1,"type":"debit"},
				{"date":20240302,"description":"numeric date","amount":1,"type":"debit"},
				"not an object",
				{"date":"2024-03-03","description":"bad amount","amount":"n/a","type":"debit"}
			]`, nil
		},
	}

	ex, _ := NewExtractor(client, Options{})
	res, err := ex.Extract(context.Background(), "stmt-3", makeLines(5))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d: %+v", len(res.Transactions), res.Transactions)
	}
	if res.Invalid != 5 {
		t.Errorf("expected 5 invalid candidates, got %d", res.Invalid)
	}

	ok := res.Transactions[0]
	if ok.Amount != 1200.50 || ok.Direction != domain.DirectionCredit {
		t.Errorf("unexpected first transaction: %+v", ok)
	}
	if res.Transactions[1].Amount != 0 {
		t.Errorf("unparseable amount should become 0, got %v", res.Transactions[1].Amount)
	}
}

func TestExtract_NoTransactions(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		output string
	}{
		{"empty statement", nil, "[]"},
		{"model finds nothing", makeLines(10), "[]"},
		{"all candidates invalid", makeLines(10), `[{"date":"yesterday","description":"x","amount":1,"type":"debit"}]`},
		{"all windows garbled", makeLines(10), "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockModelClient{
				CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
					return tt.output, nil
				},
			}
			ex, _ := NewExtractor(client, Options{})

			_, err := ex.Extract(context.Background(), "stmt", tt.lines)
			if !errors.Is(err, domain.ErrNoTransactionsExtracted) {
				t.Errorf("expected ErrNoTransactionsExtracted, got %v", err)
			}
		})
	}
}

func TestExtract_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, maxInFlight int32

	client := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				cur := atomic.LoadInt32(&maxInFlight)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			return fmt.Sprintf(`[{"date":"2024-01-01","description":%q,"amount":1,"type":"debit"}]`, firstLine(prompt)), nil
		},
	}

	ex, _ := NewExtractor(client, Options{Window: 4, Overlap: 1, Concurrency: 2})
	res, err := ex.Extract(context.Background(), "stmt", makeLines(30))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := atomic.LoadInt32(&maxInFlight); got > 2 {
		t.Errorf("expected at most 2 concurrent calls, got %d", got)
	}
	if len(res.Transactions) != res.Windows {
		t.Errorf("expected one transaction per window, got %d for %d windows", len(res.Transactions), res.Windows)
	}
}

func TestExtract_WindowTimeoutDropsWindow(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	client := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			if firstLine(prompt) == "line 0" {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return `[{"date":"2024-01-01","description":"late window","amount":5,"type":"debit"}]`, nil
		},
	}

	ex, _ := NewExtractor(client, Options{WindowTimeout: 20 * time.Millisecond, Concurrency: 2})
	res, err := ex.Extract(context.Background(), "stmt", makeLines(50))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.FailedWindows != 1 {
		t.Errorf("expected 1 failed window, got %d", res.FailedWindows)
	}
	if calls != 2 {
		t.Errorf("expected 2 model calls, got %d", calls)
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", ctx.Err()
		},
	}
	ex, _ := NewExtractor(client, Options{})

	_, err := ex.Extract(ctx, "stmt", makeLines(10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWindowError_MatchesParseFailure(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &WindowError{Window: 2, StartLine: 60, Err: errors.New("boom")})
	if !errors.Is(err, domain.ErrExtractionParseFailure) {
		t.Error("expected WindowError to match ErrExtractionParseFailure")
	}
}

func TestNewExtractor_Validation(t *testing.T) {
	if _, err := NewExtractor(nil, Options{}); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := NewExtractor(&MockModelClient{}, Options{Window: 10, Overlap: 10}); err == nil {
		t.Error("expected error for overlap >= window")
	}
}

func TestDedup_Idempotent(t *testing.T) {
	d := func(s string) time.Time {
		v, _ := time.Parse(domain.DateLayout, s)
		return v
	}
	in := []domain.Transaction{
		{Date: d("2024-01-01"), Description: "A", Amount: 10},
		{Date: d("2024-01-01"), Description: " A ", Amount: -10},
		{Date: d("2024-01-01"), Description: "A", Amount: 11},
		{Date: d("2024-01-02"), Description: "A", Amount: 10},
	}

	once := Dedup(in)
	twice := Dedup(once)

	if len(once) != 3 {
		t.Fatalf("expected 3 rows after dedup, got %d", len(once))
	}
	if len(twice) != len(once) {
		t.Fatalf("dedup not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("row %d differs: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
