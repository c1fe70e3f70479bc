package handler

import (
	"context"

	reportapp "github.com/erp/orderstats/internal/application/report"
	"github.com/erp/orderstats/internal/interfaces/http/dto"
	"github.com/erp/orderstats/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// StatsReporter computes the shop statistics. reportapp.StatsService implements it.
type StatsReporter interface {
	SourceName() string
	OrdersForCardType(ctx context.Context, cardType string) ([]reportapp.OrderView, error)
	OrderSizes(ctx context.Context) ([]reportapp.OrderSizeBucket, error)
	HasColorProduct(ctx context.Context, color string) (*reportapp.ColorCheck, error)
	CardsCountForCustomer(ctx context.Context, policy string) (map[string]int64, error)
	MostPopularCountry(ctx context.Context) (*reportapp.PopularCountry, error)
	AveragePriceForCreditCard(ctx context.Context, cardNumber string) (*reportapp.AveragePrice, error)
	Summary(ctx context.Context, req reportapp.SummaryRequest) (*reportapp.Summary, error)
}

// StatsHandler handles the /stats endpoints
type StatsHandler struct {
	BaseHandler
	stats StatsReporter
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats StatsReporter) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Routes returns the stats route group
func (h *StatsHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("stats", "/stats").
		GET("/orders", h.OrdersForCardType).
		GET("/order-sizes", h.OrderSizes).
		GET("/color-check", h.HasColorProduct).
		GET("/card-counts", h.CardsCountForCustomer).
		GET("/popular-country", h.MostPopularCountry).
		GET("/average-price", h.AveragePriceForCreditCard).
		GET("/summary", h.Summary)
}

func (h *StatsHandler) meta(count int) dto.Meta {
	return dto.Meta{Source: h.stats.SourceName(), Count: count}
}

// OrdersForCardType handles GET /stats/orders?card_type=VISA
func (h *StatsHandler) OrdersForCardType(c *gin.Context) {
	var q dto.OrdersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	orders, err := h.stats.OrdersForCardType(c.Request.Context(), q.CardType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, h.meta(len(orders)))
}

// OrderSizes handles GET /stats/order-sizes
func (h *StatsHandler) OrderSizes(c *gin.Context) {
	buckets, err := h.stats.OrderSizes(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, buckets, h.meta(len(buckets)))
}

// HasColorProduct handles GET /stats/color-check?color=RED
func (h *StatsHandler) HasColorProduct(c *gin.Context) {
	var q dto.ColorQuery
	if !h.BindQuery(c, &q) {
		return
	}
	check, err := h.stats.HasColorProduct(c.Request.Context(), q.Color)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, check, h.meta(check.OrdersChecked))
}

// CardsCountForCustomer handles GET /stats/card-counts?policy=keep_last
func (h *StatsHandler) CardsCountForCustomer(c *gin.Context) {
	var q dto.CardCountsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	counts, err := h.stats.CardsCountForCustomer(c.Request.Context(), q.Policy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, counts, h.meta(len(counts)))
}

// MostPopularCountry handles GET /stats/popular-country
func (h *StatsHandler) MostPopularCountry(c *gin.Context) {
	country, err := h.stats.MostPopularCountry(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, country, h.meta(len(country.Ranking)))
}

// AveragePriceForCreditCard handles GET /stats/average-price?card_number=...
func (h *StatsHandler) AveragePriceForCreditCard(c *gin.Context) {
	var q dto.AveragePriceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	avg, err := h.stats.AveragePriceForCreditCard(c.Request.Context(), q.CardNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, avg, h.meta(int(avg.Quantity)))
}

// Summary handles GET /stats/summary?card_type=&color=&card_number=
func (h *StatsHandler) Summary(c *gin.Context) {
	var q dto.SummaryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	summary, err := h.stats.Summary(c.Request.Context(), reportapp.SummaryRequest{
		CardType:   q.CardType,
		Color:      q.Color,
		CardNumber: q.CardNumber,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	meta := h.meta(summary.CustomerCount)
	meta.Cached = summary.Cached
	h.SuccessWithMeta(c, summary, meta)
}
