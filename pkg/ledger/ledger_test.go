package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"octa-backend/pkg/models"
)

func dec(s string) decimal.Decimal { return models.DecimalFromString(s) }

func stock(buy, current string, qty int64) *models.Stock {
	return &models.Stock{
		BuyPrice:     dec(buy),
		CurrentPrice: dec(current),
		Quantity:     qty,
		Status:       models.StockStatusActive,
	}
}

func TestDefaultPercentages(t *testing.T) {
	assert := assert.New(t)

	pct := DefaultPercentages()
	assert.True(pct.Brokerage.Equal(dec("5")), "default brokerage should be 5%")
	assert.True(pct.GST.IsZero(), "default GST should be zero")
	assert.True(pct.STT.IsZero(), "default STT should be zero")
	assert.True(pct.TxnTax.IsZero(), "default transaction tax should be zero")
}

func TestFromSettingNilFallsBack(t *testing.T) {
	assert := assert.New(t)

	pct := FromSetting(nil)
	assert.True(pct.Brokerage.Equal(dec("5")), "nil setting should fall back to defaults")
}

func TestComputeChargesOnLoss(t *testing.T) {
	assert := assert.New(t)

	pct := Percentages{Brokerage: dec("5"), GST: dec("18"), STT: dec("1"), TxnTax: dec("1")}
	for _, profit := range []string{"-100", "-0.01", "0"} {
		c := ComputeCharges(dec(profit), pct)
		assert.True(c.Brokerage.IsZero(), "no brokerage on profit %s", profit)
		assert.True(c.GST.IsZero(), "no GST on profit %s", profit)
		assert.True(c.STT.IsZero(), "no STT on profit %s", profit)
		assert.True(c.TxnTax.IsZero(), "no txn tax on profit %s", profit)
		assert.True(c.Total.IsZero(), "no total charge on profit %s", profit)
	}
}

func TestComputeChargesOnProfit(t *testing.T) {
	assert := assert.New(t)

	// brokerage 5%, GST 18% of brokerage, STT and txn tax off
	pct := Percentages{Brokerage: dec("5"), GST: dec("18"), STT: decimal.Zero, TxnTax: decimal.Zero}
	c := ComputeCharges(dec("1000"), pct)

	assert.True(c.Brokerage.Equal(dec("50")), "brokerage should be 5%% of 1000, got %s", c.Brokerage)
	assert.True(c.GST.Equal(dec("9")), "GST should be 18%% of brokerage, got %s", c.GST)
	assert.True(c.STT.IsZero())
	assert.True(c.TxnTax.IsZero())
	assert.True(c.Total.Equal(dec("59")), "total charge should be 59, got %s", c.Total)
}

func TestComputeChargesAllComponents(t *testing.T) {
	assert := assert.New(t)

	pct := Percentages{Brokerage: dec("2"), GST: dec("18"), STT: dec("0.1"), TxnTax: dec("0.05")}
	c := ComputeCharges(dec("10000"), pct)

	assert.True(c.Brokerage.Equal(dec("200")), "brokerage, got %s", c.Brokerage)
	assert.True(c.GST.Equal(dec("36")), "GST compounds on brokerage, got %s", c.GST)
	assert.True(c.STT.Equal(dec("10")), "STT applies to profit, got %s", c.STT)
	assert.True(c.TxnTax.Equal(dec("5")), "txn tax applies to profit, got %s", c.TxnTax)
	assert.True(c.Total.Equal(dec("251")), "total, got %s", c.Total)
}

func TestComputePositionProfit(t *testing.T) {
	assert := assert.New(t)

	s := stock("100", "120", 10)
	m := ComputePosition(s, DefaultPercentages())

	assert.True(m.Investment.Equal(dec("1000")), "investment, got %s", m.Investment)
	assert.True(m.CurrentValue.Equal(dec("1200")), "current value, got %s", m.CurrentValue)
	assert.True(m.Profit.Equal(dec("200")), "profit, got %s", m.Profit)
	assert.True(m.ProfitPct.Equal(dec("20")), "profit pct, got %s", m.ProfitPct)
	assert.True(m.Charges.Brokerage.Equal(dec("10")), "brokerage at default 5%%, got %s", m.Charges.Brokerage)
	assert.True(m.NetProfit.Equal(dec("190")), "net profit, got %s", m.NetProfit)
	assert.False(m.HasTarget)
}

func TestComputePositionLossHasNoCharges(t *testing.T) {
	assert := assert.New(t)

	s := stock("100", "80", 5)
	m := ComputePosition(s, DefaultPercentages())

	assert.True(m.Profit.Equal(dec("-100")), "loss, got %s", m.Profit)
	assert.True(m.Charges.Total.IsZero(), "no charges on a loss")
	assert.True(m.NetProfit.Equal(m.Profit), "net equals gross on a loss")
}

func TestComputePositionZeroInvestment(t *testing.T) {
	assert := assert.New(t)

	s := stock("0", "10", 3)
	m := ComputePosition(s, DefaultPercentages())

	assert.True(m.ProfitPct.IsZero(), "profit pct should be 0 when investment is 0")
}

func TestComputePositionTarget(t *testing.T) {
	assert := assert.New(t)

	s := stock("100", "110", 10)
	sell := dec("150")
	s.SellPrice = &sell
	m := ComputePosition(s, DefaultPercentages())

	assert.True(m.HasTarget)
	assert.True(m.TargetProfit.Equal(dec("500")), "target profit, got %s", m.TargetProfit)
	assert.True(m.TargetProfitPct.Equal(dec("50")), "target pct, got %s", m.TargetProfitPct)
	// target figures are informational only, charges come from current price
	assert.True(m.Charges.Brokerage.Equal(dec("5")), "charges unaffected by sell price, got %s", m.Charges.Brokerage)
}

func TestComputePortfolioSums(t *testing.T) {
	assert := assert.New(t)

	stocks := []models.Stock{
		*stock("100", "120", 10), // +200 profit
		*stock("50", "40", 10),   // -100 loss
		*stock("10", "10", 100),  // flat
	}
	pct := Percentages{Brokerage: dec("5"), GST: dec("18"), STT: decimal.Zero, TxnTax: decimal.Zero}
	sum := ComputePortfolio(stocks, pct)

	assert.Equal(3, sum.Positions)
	assert.True(sum.Investment.Equal(dec("2500")), "investment, got %s", sum.Investment)
	assert.True(sum.CurrentValue.Equal(dec("2600")), "current value, got %s", sum.CurrentValue)
	assert.True(sum.Profit.Equal(dec("100")), "profit, got %s", sum.Profit)
	assert.True(sum.ProfitPct.Equal(dec("4")), "pct recomputed from sums, got %s", sum.ProfitPct)

	// charges accrue only on the profitable position: 200*5% = 10, GST 1.8
	assert.True(sum.TotalCharge.Equal(dec("11.8")), "total charges, got %s", sum.TotalCharge)
	assert.True(sum.NetProfit.Equal(dec("88.2")), "net profit, got %s", sum.NetProfit)
}

func TestComputePortfolioChargesAreSumOfPerPosition(t *testing.T) {
	assert := assert.New(t)

	stocks := []models.Stock{
		*stock("10", "15", 100),
		*stock("20", "22", 50),
		*stock("5", "4", 200),
	}
	pct := Percentages{Brokerage: dec("3"), GST: dec("18"), STT: dec("0.1"), TxnTax: dec("0.05")}

	sum := ComputePortfolio(stocks, pct)
	expected := decimal.Zero
	for i := range stocks {
		expected = expected.Add(ComputePosition(&stocks[i], pct).Charges.Total)
	}
	assert.True(sum.TotalCharge.Equal(expected), "aggregate charge must equal sum of positions, got %s want %s", sum.TotalCharge, expected)
}

func TestComputePortfolioEmpty(t *testing.T) {
	assert := assert.New(t)

	sum := ComputePortfolio(nil, DefaultPercentages())
	assert.Equal(0, sum.Positions)
	assert.True(sum.Investment.IsZero())
	assert.True(sum.ProfitPct.IsZero())
}

func TestFilterStocks(t *testing.T) {
	assert := assert.New(t)

	stocks := []models.Stock{
		{StockName: "Reliance Industries", StockSymbol: "RELIANCE", Status: models.StockStatusActive},
		{StockName: "Tata Motors", StockSymbol: "TATAMOTORS", Status: models.StockStatusSold},
		{StockName: "Infosys", StockSymbol: "INFY", Status: models.StockStatusActive},
	}

	assert.Len(FilterStocks(stocks, "", ""), 3, "empty filter keeps everything")
	assert.Len(FilterStocks(stocks, models.StockStatusActive, ""), 2)
	assert.Len(FilterStocks(stocks, "", "tata"), 1, "search is case-insensitive")
	assert.Len(FilterStocks(stocks, "", "INFY"), 1, "search matches symbol")
	assert.Len(FilterStocks(stocks, models.StockStatusSold, "infosys"), 0, "filters combine")
}

func TestRound2(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("11.80", Round2(dec("11.8")).StringFixed(2))
	assert.Equal("0.13", Round2(dec("0.125")).StringFixed(2))
}
