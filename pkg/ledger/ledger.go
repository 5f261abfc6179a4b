// Package ledger implements the pure position and portfolio arithmetic for
// the stock ledger: investment, profit/loss, charge breakdown and net value.
// All functions are side-effect free and operate on decimals.
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"octa-backend/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Percentages is the charge schedule applied to the profit side of a
// position. Values are percent units (5 means 5%).
type Percentages struct {
	Brokerage decimal.Decimal `json:"brokerage_pct"`
	GST       decimal.Decimal `json:"gst_pct"`
	STT       decimal.Decimal `json:"stt_pct"`
	TxnTax    decimal.Decimal `json:"txn_tax_pct"`
}

// DefaultPercentages is the schedule used when a user has no active
// settings row: 5% brokerage, everything else zero.
func DefaultPercentages() Percentages {
	return Percentages{
		Brokerage: decimal.NewFromInt(5),
		GST:       decimal.Zero,
		STT:       decimal.Zero,
		TxnTax:    decimal.Zero,
	}
}

// FromSetting converts a stored settings row into a charge schedule
func FromSetting(s *models.PercentageSetting) Percentages {
	if s == nil {
		return DefaultPercentages()
	}
	return Percentages{
		Brokerage: s.BrokeragePct,
		GST:       s.GSTPct,
		STT:       s.STTPct,
		TxnTax:    s.TxnTaxPct,
	}
}

// Charges is the four-component charge breakdown for one position.
// GST compounds on brokerage; the other components apply to profit directly.
type Charges struct {
	Brokerage decimal.Decimal `json:"brokerage"`
	GST       decimal.Decimal `json:"gst"`
	STT       decimal.Decimal `json:"stt"`
	TxnTax    decimal.Decimal `json:"txn_tax"`
	Total     decimal.Decimal `json:"total_charge"`
}

// PositionMetrics holds every derived number for a single stock position
type PositionMetrics struct {
	Investment      decimal.Decimal `json:"investment"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	Profit          decimal.Decimal `json:"profit_loss"`
	ProfitPct       decimal.Decimal `json:"profit_loss_pct"`
	Charges         Charges         `json:"charges"`
	NetProfit       decimal.Decimal `json:"net_profit_loss"`
	TargetProfit    decimal.Decimal `json:"target_profit,omitempty"`
	TargetProfitPct decimal.Decimal `json:"target_profit_pct,omitempty"`
	HasTarget       bool            `json:"-"`
}

// PortfolioSummary aggregates position metrics by elementwise sum.
// Percentages are recomputed from the sums, never averaged per row.
type PortfolioSummary struct {
	Positions    int             `json:"positions"`
	Investment   decimal.Decimal `json:"total_investment"`
	CurrentValue decimal.Decimal `json:"total_current_value"`
	Profit       decimal.Decimal `json:"total_profit_loss"`
	ProfitPct    decimal.Decimal `json:"total_profit_loss_pct"`
	TotalCharge  decimal.Decimal `json:"total_charges"`
	NetProfit    decimal.Decimal `json:"net_profit_loss"`
}

// ComputeCharges returns the charge breakdown for a given profit. A zero or
// negative profit carries no charges at all.
func ComputeCharges(profit decimal.Decimal, pct Percentages) Charges {
	if profit.Sign() <= 0 {
		return Charges{
			Brokerage: decimal.Zero,
			GST:       decimal.Zero,
			STT:       decimal.Zero,
			TxnTax:    decimal.Zero,
			Total:     decimal.Zero,
		}
	}

	brokerage := profit.Mul(pct.Brokerage).Div(hundred)
	gst := brokerage.Mul(pct.GST).Div(hundred)
	stt := profit.Mul(pct.STT).Div(hundred)
	txnTax := profit.Mul(pct.TxnTax).Div(hundred)

	return Charges{
		Brokerage: brokerage,
		GST:       gst,
		STT:       stt,
		TxnTax:    txnTax,
		Total:     brokerage.Add(gst).Add(stt).Add(txnTax),
	}
}

// ComputePosition derives all metrics for one stock position
func ComputePosition(s *models.Stock, pct Percentages) PositionMetrics {
	qty := decimal.NewFromInt(s.Quantity)
	investment := s.BuyPrice.Mul(qty)
	currentValue := s.CurrentPrice.Mul(qty)
	profit := currentValue.Sub(investment)

	m := PositionMetrics{
		Investment:   investment,
		CurrentValue: currentValue,
		Profit:       profit,
		ProfitPct:    pctOf(profit, investment),
		Charges:      ComputeCharges(profit, pct),
	}
	m.NetProfit = profit.Sub(m.Charges.Total)

	if s.SellPrice != nil {
		m.HasTarget = true
		m.TargetProfit = s.SellPrice.Mul(qty).Sub(investment)
		m.TargetProfitPct = pctOf(m.TargetProfit, investment)
	}
	return m
}

// ComputePortfolio sums position metrics over the given stocks. The charge
// schedule is the user's single active one, applied per position.
func ComputePortfolio(stocks []models.Stock, pct Percentages) PortfolioSummary {
	sum := PortfolioSummary{
		Investment:   decimal.Zero,
		CurrentValue: decimal.Zero,
		Profit:       decimal.Zero,
		TotalCharge:  decimal.Zero,
		NetProfit:    decimal.Zero,
	}
	for i := range stocks {
		m := ComputePosition(&stocks[i], pct)
		sum.Positions++
		sum.Investment = sum.Investment.Add(m.Investment)
		sum.CurrentValue = sum.CurrentValue.Add(m.CurrentValue)
		sum.Profit = sum.Profit.Add(m.Profit)
		sum.TotalCharge = sum.TotalCharge.Add(m.Charges.Total)
		sum.NetProfit = sum.NetProfit.Add(m.NetProfit)
	}
	sum.ProfitPct = pctOf(sum.Profit, sum.Investment)
	return sum
}

// FilterStocks applies the status/search filter used by the ledger views.
// An empty status means all statuses; the search term matches name or
// symbol, case-insensitively.
func FilterStocks(stocks []models.Stock, status models.StockStatus, search string) []models.Stock {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Stock, 0, len(stocks))
	for _, s := range stocks {
		if status != "" && s.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.StockName), search) &&
			!strings.Contains(strings.ToLower(s.StockSymbol), search) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Round2 rounds to two decimal places for presentation. Internal math stays
// at full precision; only API responses are rounded.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func pctOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.Sign() <= 0 {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
