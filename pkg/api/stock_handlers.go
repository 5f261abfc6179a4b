package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"octa-backend/pkg/cache"
	"octa-backend/pkg/config"
	"octa-backend/pkg/imagestore"
	"octa-backend/pkg/ledger"
	"octa-backend/pkg/middleware"
	"octa-backend/pkg/models"
)

// StockHandlers contains stock ledger and percentage setting handlers
type StockHandlers struct {
	db     *gorm.DB
	cfg    *config.Config
	images *imagestore.Store
}

// NewStockHandlers creates new stock handlers
func NewStockHandlers(db *gorm.DB, cfg *config.Config, images *imagestore.Store) *StockHandlers {
	return &StockHandlers{
		db:     db,
		cfg:    cfg,
		images: images,
	}
}

// StockRequest represents the stock create payload
type StockRequest struct {
	StockName    string `json:"stock_name" binding:"required"`
	StockSymbol  string `json:"stock_symbol"`
	BuyPrice     string `json:"buy_price" binding:"required"`
	CurrentPrice string `json:"current_price"`
	SellPrice    string `json:"sell_price"`
	Quantity     int64  `json:"quantity" binding:"required"`
	PurchaseDate string `json:"purchase_date"`
	Status       string `json:"status"`
}

// StockUpdateRequest carries optional position fields; only present fields
// are validated and written, so a partial update never clears the rest
type StockUpdateRequest struct {
	StockName    *string `json:"stock_name"`
	StockSymbol  *string `json:"stock_symbol"`
	BuyPrice     *string `json:"buy_price"`
	CurrentPrice *string `json:"current_price"`
	SellPrice    *string `json:"sell_price"`
	Quantity     *int64  `json:"quantity"`
	PurchaseDate *string `json:"purchase_date"`
	Status       *string `json:"status"`
}

// buildStockUpdates validates the present fields of an update payload and
// assembles the column map. Malformed values, including a bad purchase
// date, surface through the validator.
func buildStockUpdates(req StockUpdateRequest, v *Validator) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.StockName != nil {
		v.ValidateString("stock_name", *req.StockName, 1, 100, true)
		updates["stock_name"] = *req.StockName
	}
	if req.StockSymbol != nil {
		updates["stock_symbol"] = *req.StockSymbol
	}
	if req.BuyPrice != nil {
		updates["stock_buy_price"] = v.ValidatePrice("buy_price", *req.BuyPrice, true)
	}
	if req.CurrentPrice != nil {
		updates["current_price"] = v.ValidatePrice("current_price", *req.CurrentPrice, true)
	}
	if req.SellPrice != nil {
		updates["sell_price"] = v.ValidatePrice("sell_price", *req.SellPrice, true)
	}
	if req.Quantity != nil {
		v.ValidateQuantity("quantity", *req.Quantity)
		updates["quantity"] = *req.Quantity
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.PurchaseDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.PurchaseDate)
		if err != nil {
			v.AddError("purchase_date", "invalid purchase date, expected YYYY-MM-DD")
		} else {
			updates["purchase_date"] = parsed
		}
	}
	return updates
}

// stockView is a stock row together with its derived metrics
type stockView struct {
	models.Stock
	Metrics ledger.PositionMetrics `json:"metrics"`
}

// percentagesFor loads the user's single active charge schedule, preferring
// the cache and falling back to the configured defaults when no row exists.
// Every ledger read recomputes metrics with this schedule, so a short cache
// saves one query per listing.
func (sh *StockHandlers) percentagesFor(userID uint) ledger.Percentages {
	var cached ledger.Percentages
	if err := cache.GetUserPercentages(userID, &cached); err == nil {
		return cached
	}

	var setting models.PercentageSetting
	err := sh.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		First(&setting).Error

	var pct ledger.Percentages
	if err != nil {
		pct = sh.defaultPercentages()
	} else {
		pct = ledger.FromSetting(&setting)
	}
	cache.CacheUserPercentages(userID, pct)
	return pct
}

// defaultPercentages builds the fallback schedule, taking the brokerage
// component from configuration
func (sh *StockHandlers) defaultPercentages() ledger.Percentages {
	pct := ledger.DefaultPercentages()
	if sh.cfg.Ledger.DefaultBrokeragePct != "" {
		pct.Brokerage = models.DecimalFromString(sh.cfg.Ledger.DefaultBrokeragePct)
	}
	return pct
}

// roundMetrics rounds derived numbers to two decimals for presentation
func roundMetrics(m ledger.PositionMetrics) ledger.PositionMetrics {
	m.Investment = ledger.Round2(m.Investment)
	m.CurrentValue = ledger.Round2(m.CurrentValue)
	m.Profit = ledger.Round2(m.Profit)
	m.ProfitPct = ledger.Round2(m.ProfitPct)
	m.Charges.Brokerage = ledger.Round2(m.Charges.Brokerage)
	m.Charges.GST = ledger.Round2(m.Charges.GST)
	m.Charges.STT = ledger.Round2(m.Charges.STT)
	m.Charges.TxnTax = ledger.Round2(m.Charges.TxnTax)
	m.Charges.Total = ledger.Round2(m.Charges.Total)
	m.NetProfit = ledger.Round2(m.NetProfit)
	m.TargetProfit = ledger.Round2(m.TargetProfit)
	m.TargetProfitPct = ledger.Round2(m.TargetProfitPct)
	return m
}

func roundSummary(s ledger.PortfolioSummary) ledger.PortfolioSummary {
	s.Investment = ledger.Round2(s.Investment)
	s.CurrentValue = ledger.Round2(s.CurrentValue)
	s.Profit = ledger.Round2(s.Profit)
	s.ProfitPct = ledger.Round2(s.ProfitPct)
	s.TotalCharge = ledger.Round2(s.TotalCharge)
	s.NetProfit = ledger.Round2(s.NetProfit)
	return s
}

// GetMyStocks lists the authenticated user's positions with metrics and a
// portfolio summary over the filtered set
func (sh *StockHandlers) GetMyStocks(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	sh.listStocks(c, user.ID)
}

// GetUserStocks lists a given user's positions (back office)
func (sh *StockHandlers) GetUserStocks(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	sh.listStocks(c, userID)
}

func (sh *StockHandlers) listStocks(c *gin.Context, userID uint) {
	var stocks []models.Stock
	if err := sh.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&stocks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stocks"})
		return
	}

	status := models.StockStatus(c.Query("status"))
	search := c.Query("search")
	filtered := ledger.FilterStocks(stocks, status, search)

	pct := sh.percentagesFor(userID)

	views := make([]stockView, 0, len(filtered))
	for i := range filtered {
		views = append(views, stockView{
			Stock:   filtered[i],
			Metrics: roundMetrics(ledger.ComputePosition(&filtered[i], pct)),
		})
	}
	summary := roundSummary(ledger.ComputePortfolio(filtered, pct))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
		"summary": summary,
	})
}

// CreateStock adds a position to a user's ledger (back office)
func (sh *StockHandlers) CreateStock(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := sh.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	buyPrice := validator.ValidatePrice("buy_price", req.BuyPrice, true)
	currentPrice := validator.ValidatePrice("current_price", req.CurrentPrice, false)
	sellPrice := validator.ValidatePrice("sell_price", req.SellPrice, false)
	validator.ValidateQuantity("quantity", req.Quantity)
	validator.ValidateString("stock_name", req.StockName, 1, 100, true)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.PurchaseDate); err == nil {
			purchaseDate = parsed
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase date, expected YYYY-MM-DD"})
			return
		}
	}

	stock := models.Stock{
		UserID:       userID,
		StockName:    req.StockName,
		StockSymbol:  req.StockSymbol,
		BuyPrice:     buyPrice,
		CurrentPrice: currentPrice,
		Quantity:     req.Quantity,
		PurchaseDate: purchaseDate,
	}
	if req.SellPrice != "" {
		stock.SellPrice = &sellPrice
	}
	if req.Status != "" {
		stock.Status = models.StockStatus(req.Status)
	}

	if err := sh.db.Create(&stock).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stock"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    stock,
	})
}

// UpdateStock partially updates a position (back office); absent fields
// keep their stored values
func (sh *StockHandlers) UpdateStock(c *gin.Context) {
	stockID, err := parseUintParam(c, "stockId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stock ID"})
		return
	}

	var stock models.Stock
	if err := sh.db.First(&stock, stockID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}

	var req StockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	updates := buildStockUpdates(req, validator)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := sh.db.Model(&stock).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stock,
	})
}

// UploadStockImage attaches an image to a position (back office)
func (sh *StockHandlers) UploadStockImage(c *gin.Context) {
	stockID, err := parseUintParam(c, "stockId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stock ID"})
		return
	}

	var stock models.Stock
	if err := sh.db.First(&stock, stockID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is required"})
		return
	}
	if fileHeader.Size > sh.cfg.Ledger.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}
	defer file.Close()

	url, _, err := sh.images.Upload(c.Request.Context(), file, imagestore.FolderStockImages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	if err := sh.db.Model(&stock).Update("image_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"stock_id":  stock.ID,
			"image_url": url,
		},
	})
}

// DeleteStock removes a position from a ledger (back office)
func (sh *StockHandlers) DeleteStock(c *gin.Context) {
	stockID, err := parseUintParam(c, "stockId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stock ID"})
		return
	}

	var stock models.Stock
	if err := sh.db.First(&stock, stockID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}

	if err := sh.db.Delete(&stock).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock"})
		return
	}

	if stock.ImageURL != nil {
		sh.images.Delete(c.Request.Context(), imagestore.PublicIDFromURL(*stock.ImageURL))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Stock deleted",
	})
}

// PercentageRequest carries the four charge percentage components
type PercentageRequest struct {
	BrokeragePct string `json:"brokerage_pct"`
	GSTPct       string `json:"gst_pct"`
	STTPct       string `json:"stt_pct"`
	TxnTaxPct    string `json:"txn_tax_pct"`
}

// SetPercentages writes a user's charge schedule. The upsert keyed on
// user_id replaces any previous row, keeping at most one active schedule
// per user.
func (sh *StockHandlers) SetPercentages(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := sh.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req PercentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	brokerage := validator.ValidatePercentage("brokerage_pct", req.BrokeragePct)
	gst := validator.ValidatePercentage("gst_pct", req.GSTPct)
	stt := validator.ValidatePercentage("stt_pct", req.STTPct)
	txnTax := validator.ValidatePercentage("txn_tax_pct", req.TxnTaxPct)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	admin, _ := middleware.GetAdminFromContext(c)

	setting := models.PercentageSetting{
		UserID:        userID,
		BrokeragePct:  brokerage,
		GSTPct:        gst,
		STTPct:        stt,
		TxnTaxPct:     txnTax,
		IsActive:      true,
		UpdatedByName: admin.Name,
	}
	err = sh.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"brokerage_pct", "gst_pct", "stt_pct", "txn_tax_pct",
			"is_active", "updated_by_name", "updated_at",
		}),
	}).Create(&setting).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save percentages"})
		return
	}

	cache.InvalidateUserPercentages(userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    setting,
	})
}

// GetPercentages returns a user's active charge schedule, or the defaults
func (sh *StockHandlers) GetPercentages(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	pct := sh.percentagesFor(userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pct,
	})
}

// GetMyPercentages returns the authenticated user's active charge schedule
func (sh *StockHandlers) GetMyPercentages(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	pct := sh.percentagesFor(user.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pct,
	})
}
