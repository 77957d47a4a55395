// Package ledger persists executed trades to an append-only CSV file and
// answers last-trade and unrealized-profit queries from an in-memory map
// that is rebuilt from the file at startup. The file stays the single
// durability mechanism; the map only removes the per-query rescan.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tronprofit/internal/types"
)

// ErrAppend marks a bookkeeping failure for a trade that may already have
// executed on the exchange. Callers must treat it differently from an order
// that was never placed.
var ErrAppend = errors.New("trade not recorded")

type Ledger struct {
	path    string
	feeRate float64

	// The trading loop is the only writer; the mutex exists because the
	// notifier command loop reads concurrently.
	mu   sync.Mutex
	last map[string]types.TradeRecord
}

// Open loads (or lazily creates) the ledger file and rebuilds the
// last-trade-per-symbol map. A missing file is an empty ledger.
func Open(path string, feeRate float64) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		feeRate: feeRate,
		last:    map[string]types.TradeRecord{},
	}

	records, err := l.readAll()
	if err != nil {
		return nil, fmt.Errorf("rebuild ledger state: %w", err)
	}
	for _, rec := range records {
		l.last[rec.Symbol] = rec
	}
	return l, nil
}

// Append durably persists one trade and updates the in-memory state. The
// line format is timestamp,symbol,side,price with an ISO-8601 UTC timestamp.
func (l *Ledger) Append(rec types.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}
	defer f.Close()

	line := formatLine(rec)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}

	l.last[rec.Symbol] = rec
	return nil
}

// LastTrade returns the most recent trade for a symbol. Trades of other
// symbols never influence the result.
func (l *Ledger) LastTrade(symbol string) (types.TradeRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.last[symbol]
	return rec, ok
}

// ProfitAndFee computes the notional unrealized profit against the last
// trade for the symbol, and the performance fee on that profit. The caller
// supplies the quantity the symbol trades at, which may differ per symbol.
// With no prior trade both are zero. This is a paper calculation: it does
// not reconcile against actual fills.
func (l *Ledger) ProfitAndFee(symbol string, currentPrice, quantity float64) (profit, fee float64) {
	rec, ok := l.LastTrade(symbol)
	if !ok {
		return 0, 0
	}
	switch rec.Side {
	case types.ActionBuy:
		profit = (currentPrice - rec.Price) * quantity
	case types.ActionSell:
		profit = (rec.Price - currentPrice) * quantity
	default:
		return 0, 0
	}
	return profit, profit * l.feeRate
}

// LastN returns up to n most recent trades across all symbols, oldest first.
func (l *Ledger) LastN(n int) ([]types.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

func (l *Ledger) readAll() ([]types.TradeRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []types.TradeRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rec, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, sc.Err()
}

func formatLine(rec types.TradeRecord) string {
	return strings.Join([]string{
		rec.Time.UTC().Format(time.RFC3339),
		rec.Symbol,
		rec.Side,
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
	}, ",")
}

// Fields are numeric or enumerated, so a plain comma split is safe.
// Malformed lines are skipped rather than failing the whole rebuild.
func parseLine(line string) (types.TradeRecord, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 {
		return types.TradeRecord{}, false
	}
	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return types.TradeRecord{}, false
	}
	price, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return types.TradeRecord{}, false
	}
	return types.TradeRecord{
		Time:   ts,
		Symbol: fields[1],
		Side:   fields[2],
		Price:  price,
	}, true
}
