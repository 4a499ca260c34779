package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// csvHeader 임포트/익스포트 공용 컬럼 레이아웃
var csvHeader = []string{
	"symbol", "side", "quantity",
	"entry_price", "exit_price", "pnl", "fees", "risk",
	"opened_at", "closed_at", "tags", "notes",
}

// ImportError reports the first rejected row of a CSV import
type ImportError struct {
	Line    int
	Column  string
	Message string
}

func (e ImportError) Error() string {
	return fmt.Sprintf("csv line %d, column %q: %s", e.Line, e.Column, e.Message)
}

// ImportCSV parses a broker-statement CSV into journal trades.
// 금액 컬럼은 달러 소수 표기("12.34")를 cents로 변환한다.
// 한 행이라도 깨져 있으면 전체 임포트를 거부한다 — 부분 임포트 없음.
func ImportCSV(r io.Reader, accountID string) ([]*Trade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ImportError{1, "", "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "side", "pnl", "closed_at"} {
		if _, ok := col[required]; !ok {
			return nil, ImportError{1, required, "missing required column"}
		}
	}

	var trades []*Trade
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		trade := &Trade{
			ID:        uuid.New().String(),
			AccountID: accountID,
			Symbol:    strings.ToUpper(field("symbol")),
			Notes:     field("notes"),
		}
		if trade.Symbol == "" {
			return nil, ImportError{line, "symbol", "must not be empty"}
		}

		switch strings.ToLower(field("side")) {
		case "long", "buy":
			trade.Side = SideLong
		case "short", "sell":
			trade.Side = SideShort
		default:
			return nil, ImportError{line, "side", "must be long/buy or short/sell"}
		}

		if qty := field("quantity"); qty != "" {
			trade.Quantity, err = strconv.ParseFloat(qty, 64)
			if err != nil {
				return nil, ImportError{line, "quantity", "not a number"}
			}
		}

		for _, m := range []struct {
			column string
			dest   *int64
		}{
			{"entry_price", &trade.EntryPriceCents},
			{"exit_price", &trade.ExitPriceCents},
			{"pnl", &trade.PnLCents},
			{"fees", &trade.FeesCents},
			{"risk", &trade.RiskCents},
		} {
			raw := field(m.column)
			if raw == "" {
				continue
			}
			cents, err := parseCents(raw)
			if err != nil {
				return nil, ImportError{line, m.column, "not a dollar amount"}
			}
			*m.dest = cents
		}

		if raw := field("opened_at"); raw != "" {
			trade.OpenedAt, err = parseTimestamp(raw)
			if err != nil {
				return nil, ImportError{line, "opened_at", "unrecognized timestamp"}
			}
		}
		trade.ClosedAt, err = parseTimestamp(field("closed_at"))
		if err != nil {
			return nil, ImportError{line, "closed_at", "unrecognized timestamp"}
		}

		if tags := field("tags"); tags != "" {
			for _, tag := range strings.Split(tags, ";") {
				if tag = strings.TrimSpace(tag); tag != "" {
					trade.Tags = append(trade.Tags, tag)
				}
			}
		}

		trades = append(trades, trade)
	}

	return trades, nil
}

// ExportCSV writes trades in the same column layout ImportCSV accepts
func ExportCSV(w io.Writer, trades []*Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.Symbol,
			string(t.Side),
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			formatCents(t.EntryPriceCents),
			formatCents(t.ExitPriceCents),
			formatCents(t.PnLCents),
			formatCents(t.FeesCents),
			formatCents(t.RiskCents),
			formatTimestamp(t.OpenedAt),
			formatTimestamp(t.ClosedAt),
			strings.Join(t.Tags, ";"),
			t.Notes,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// parseCents converts a dollar string ("12.34", "-0.5", "$1,200") to cents.
// float 경유는 표현 오차가 생기므로 10진 문자열을 직접 파싱한다.
func parseCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if s[0] == '-' || s[0] == '+' {
		negative = s[0] == '-'
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:][1:]
	}
	if whole == "" {
		whole = "0"
	}
	// 센트 이하는 반올림 대신 거부 — 소스 데이터 오류일 가능성이 높다
	if len(frac) > 2 {
		return 0, fmt.Errorf("sub-cent precision: %s", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}
	if dollars > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("amount overflow: %s", s)
	}

	total := dollars*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// timestampLayouts 브로커별로 흔한 포맷 순서대로
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}
