package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

const (
	moneyPlaces = 2
	ratePlaces  = 8
	dateLayout  = "2006-01-02"
)

var (
	coreHeader     = []string{"index", "date", "period_inflation", "grace", "indexed_balance", "coupon", "amortization", "installment", "premium"}
	IssuerHeader   = append(append([]string{}, coreHeader...), "tax_shield", "issuer_flow", "issuer_net_flow")
	InvestorHeader = append(append([]string{}, coreHeader...), "investor_flow", "discounted_flow", "time_weighted", "convexity_weighted")
)

// columns that ReadCSV leaves out of the numeric rows
var textColumns = map[string]struct{}{"date": {}, "grace": {}}

// Row is one parsed period keyed by column name.
type Row map[string]float64

func WriteIssuerCSV(w io.Writer, periods []bonds.IssuerView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(IssuerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range periods {
		record := append(coreRecord(p.PeriodCore),
			money(p.TaxShield),
			money(p.IssuerFlow),
			money(p.IssuerNetFlow),
		)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write period %d: %w", p.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteInvestorCSV(w io.Writer, periods []bonds.InvestorView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(InvestorHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range periods {
		record := append(coreRecord(p.PeriodCore),
			money(p.InvestorFlow),
			money(p.DiscountedFlow),
			money(p.TimeWeighted),
			money(p.ConvexityWeighted),
		)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write period %d: %w", p.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func coreRecord(p bonds.PeriodCore) []string {
	return []string{
		strconv.Itoa(p.Index),
		p.Date.Format(dateLayout),
		decimal.NewFromFloat(p.PeriodInflation).StringFixed(ratePlaces),
		p.Grace.String(),
		money(p.IndexedBalance),
		money(p.Coupon),
		money(p.Amortization),
		money(p.Installment),
		money(p.Premium),
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(moneyPlaces)
}

// ReadCSV parses a file written by WriteIssuerCSV or WriteInvestorCSV. Dates
// are checked but not returned; every other column is numeric.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			value := strings.TrimSpace(record[i])
			if name == "date" {
				if _, err := time.Parse(dateLayout, value); err != nil {
					return nil, fmt.Errorf("line %d column %s: %w", line, name, err)
				}
			}
			if _, skip := textColumns[name]; skip {
				continue
			}
			d, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, name, err)
			}
			row[name] = d.InexactFloat64()
		}
		rows = append(rows, row)
	}
	return rows, nil
}
