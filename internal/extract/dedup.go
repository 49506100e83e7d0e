package extract

import "github.com/dvloznov/statement-scoring/internal/domain"

// Dedup collapses transactions sharing a ledger key, keeping the first
// occurrence. Overlapping windows routinely re-extract the same row.
func Dedup(txs []domain.Transaction) []domain.Transaction {
	seen := make(map[domain.LedgerKey]struct{}, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		k := tx.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, tx)
	}
	return out
}
