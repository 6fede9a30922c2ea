package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/commtrace/internal/records"
)

// fingerprint derives a cache key from the operation, the table's shape,
// and the engine parameters. Two tables with the same record count, time
// span, and counterparty count share a key; that is the identity the
// memoization capability is specified against.
func fingerprint(operation string, table *records.Table, cfg Config) string {
	first, last := table.Span()
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%d|%d|%d|%d|%d|%d|%.3f|%.3f",
		operation,
		table.Len(),
		first.UnixNano(),
		last.UnixNano(),
		len(table.Counterparties()),
		int64(cfg.ConversationTimeout/time.Second),
		int64(cfg.CounterpartyTimeout/time.Second),
		int64(cfg.QuickThreshold/time.Second),
		int64(cfg.DelayedThreshold/time.Second),
		cfg.BalanceLow,
		cfg.BalanceHigh,
	)
	return operation + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}
