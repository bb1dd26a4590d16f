package swaphistory

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/store/chainflipswap"
	"github.com/dwarvesf/swap-history/internal/store/swaprecord"
	"github.com/dwarvesf/swap-history/internal/transformer"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
	"github.com/dwarvesf/swap-history/internal/view"
)

const (
	errFetching = "Error Fetching Data"
	maxLimit    = 1000
)

// SwapsRequest mirrors the listing body the dashboard posts.
// Page and limit arrive as strings.
type SwapsRequest struct {
	SortBy string `json:"sort_by" binding:"required"`
	Page   string `json:"page" binding:"required,numeric"`
	Limit  string `json:"limit" binding:"required,numeric"`
	Order  string `json:"order"`
	Search string `json:"search"`
	Date   string `json:"date"`
	Source string `json:"source" binding:"omitempty,oneof=native trade chainflip"`
}

type handler struct {
	db        *gorm.DB
	store     *store.Store
	appConfig *config.AppConfig
	logger    *logger.Logger
	metrics   QueryRecorder
}

func New(db *gorm.DB, store *store.Store, appConfig *config.AppConfig, logger *logger.Logger, metrics QueryRecorder) IHandler {
	return &handler{
		db:        db,
		store:     store,
		appConfig: appConfig,
		logger:    logger,
		metrics:   metrics,
	}
}

// ListSwaps godoc
// @Summary List stored swaps
// @Description Pages through one source's swap table with sorting, search and a date filter
// @id listSwaps
// @Tags Swaps
// @Accept json
// @Produce json
// @Param request body SwapsRequest true "Listing parameters"
// @Success 200 {object} view.PageResponse[model.SwapRecord]
// @Failure 400 {object} view.ErrorResponse
// @Router /api/v1/swaps [post]
func (h *handler) ListSwaps(c *gin.Context) {
	var req SwapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, "[ListSwaps][ShouldBindJSON]", err)
		return
	}

	kind := consts.SourceKind(req.Source)
	if kind == "" {
		kind = consts.SourceNative
	}
	src, ok := h.appConfig.Source(kind)
	if !ok {
		h.reject(c, "[ListSwaps][Source]", errors.Errorf("source %s is not configured", kind))
		return
	}

	query, page, limit, err := buildQuery(req, kind)
	if err != nil {
		h.reject(c, "[ListSwaps][buildQuery]", err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	if kind == consts.SourceChainflip {
		respond(c, h, src.Table, page, limit, func() ([]model.ChainflipSwap, error) {
			return h.store.ChainflipSwap.Find(db, src.Table, query)
		})
		return
	}
	respond(c, h, src.Table, page, limit, func() ([]model.SwapRecord, error) {
		return h.store.SwapRecord.Find(db, src.Table, query)
	})
}

func respond[T any](c *gin.Context, h *handler, table string, page, limit int, find func() ([]T, error)) {
	start := time.Now()
	records, err := find()
	duration := time.Since(start).Seconds()
	if err != nil {
		h.metrics.RecordSwapQuery(table, "error", duration)
		h.reject(c, "[ListSwaps][Find]", err)
		return
	}
	h.metrics.RecordSwapQuery(table, "success", duration)
	c.JSON(http.StatusOK, view.CreatePageResponse(records, page, limit))
}

func buildQuery(req SwapsRequest, kind consts.SourceKind) (model.SwapQuery, int, int, error) {
	sortable := swaprecord.IsSortable
	if kind == consts.SourceChainflip {
		sortable = chainflipswap.IsSortable
	}
	if !sortable(req.SortBy) {
		return model.SwapQuery{}, 0, 0, errors.Errorf("column %q is not sortable", req.SortBy)
	}

	page, err := strconv.Atoi(req.Page)
	if err != nil || page < 1 {
		return model.SwapQuery{}, 0, 0, errors.Errorf("invalid page %q", req.Page)
	}
	limit, err := strconv.Atoi(req.Limit)
	if err != nil || limit < 1 || limit > maxLimit {
		return model.SwapQuery{}, 0, 0, errors.Errorf("invalid limit %q", req.Limit)
	}

	query := model.SwapQuery{
		SortBy: req.SortBy,
		Desc:   !strings.EqualFold(req.Order, "ASC"),
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: strings.TrimSpace(req.Search),
	}
	if req.Date != "" {
		query.Date, err = transformer.FormatDateForSQL(req.Date)
		if err != nil {
			return model.SwapQuery{}, 0, 0, errors.Wrapf(err, "invalid date %q", req.Date)
		}
	}
	return query, page, limit, nil
}

// GetClosingPrice godoc
// @Summary Daily closing price
// @Description Returns the stored USD closing price of the tracked coin for a YYYY-MM-DD date
// @id getClosingPrice
// @Tags Swaps
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} view.Response[model.ClosingPrice]
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /api/v1/closing-prices/{date} [get]
func (h *handler) GetClosingPrice(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		h.reject(c, "[GetClosingPrice][Parse]", err)
		return
	}

	start := time.Now()
	price, err := h.store.ClosingPrice.GetByDate(h.db.WithContext(c.Request.Context()), consts.ClosingPriceCoinID, date)
	duration := time.Since(start).Seconds()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.metrics.RecordClosingPriceQuery("not_found", duration)
		c.JSON(http.StatusNotFound, view.CreateError("closing price not found"))
		return
	}
	if err != nil {
		h.metrics.RecordClosingPriceQuery("error", duration)
		h.reject(c, "[GetClosingPrice][GetByDate]", err)
		return
	}

	h.metrics.RecordClosingPriceQuery("success", duration)
	c.JSON(http.StatusOK, view.CreateResponse(*price, ""))
}

func (h *handler) reject(c *gin.Context, tag string, err error) {
	h.logger.Error(tag, map[string]string{
		"error": err.Error(),
	})
	c.JSON(http.StatusBadRequest, view.CreateError(errFetching))
}
