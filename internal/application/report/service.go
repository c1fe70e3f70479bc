// Package report runs the shop statistics against a customer data source.
package report

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/erp/orderstats/internal/domain/stats"
	"github.com/erp/orderstats/internal/infrastructure/logger"
	"github.com/erp/orderstats/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CustomerSource materializes the customers a report runs over.
type CustomerSource interface {
	LoadCustomers(ctx context.Context) ([]*shop.Customer, error)
}

// SummaryCache stores encoded summaries. cache.Store satisfies it.
type SummaryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Report names used in spans, logs and metrics
const (
	ReportOrdersForCardType = "orders_for_card_type"
	ReportOrderSizes        = "order_sizes"
	ReportHasColorProduct   = "has_color_product"
	ReportCardsCount        = "cards_count_for_customer"
	ReportPopularCountry    = "most_popular_country"
	ReportAveragePrice      = "average_price_for_credit_card"
	ReportSummary           = "summary"
)

// Config holds report computation settings
type Config struct {
	AverageScale    int32
	DuplicatePolicy stats.DuplicatePolicy
	PartitionSize   int
	MaxConcurrency  int
	SummaryCacheTTL time.Duration
}

// DefaultConfig returns the settings used when none are supplied
func DefaultConfig() Config {
	return Config{
		AverageScale:    stats.DefaultAverageScale,
		DuplicatePolicy: stats.KeepLast,
		PartitionSize:   500,
		MaxConcurrency:  4,
	}
}

// Option configures a StatsService
type Option func(*StatsService)

// WithConfig replaces the report settings
func WithConfig(cfg Config) Option {
	return func(s *StatsService) {
		s.cfg = cfg
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *StatsService) {
		s.logger = l
	}
}

// WithMetrics records report metrics
func WithMetrics(m *telemetry.ReportMetrics) Option {
	return func(s *StatsService) {
		s.metrics = m
	}
}

// WithSummaryCache caches summaries for Config.SummaryCacheTTL
func WithSummaryCache(c SummaryCache) Option {
	return func(s *StatsService) {
		s.cache = c
	}
}

// WithSourceName labels the data source in logs and metrics
func WithSourceName(name string) Option {
	return func(s *StatsService) {
		s.sourceName = name
	}
}

// StatsService exposes each report over a customer source.
// Every call loads the source afresh, since the reports consume a single-traversal sequence.
type StatsService struct {
	source     CustomerSource
	sourceName string
	cfg        Config
	logger     *zap.Logger
	metrics    *telemetry.ReportMetrics
	cache      SummaryCache
}

// NewStatsService creates a new StatsService
func NewStatsService(source CustomerSource, opts ...Option) *StatsService {
	s := &StatsService{
		source:     source,
		sourceName: "custom",
		cfg:        DefaultConfig(),
		logger:     zap.NewNop(),
	}
	if named, ok := source.(interface{ Name() string }); ok {
		s.sourceName = named.Name()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.PartitionSize = max(s.cfg.PartitionSize, 1)
	s.cfg.MaxConcurrency = max(s.cfg.MaxConcurrency, 1)
	if s.cfg.DuplicatePolicy == "" {
		s.cfg.DuplicatePolicy = stats.KeepLast
	}
	return s
}

// Config returns the effective settings
func (s *StatsService) Config() Config {
	return s.cfg
}

// SourceName returns the data source label
func (s *StatsService) SourceName() string {
	return s.sourceName
}

// OrdersForCardType returns the orders paid with the given card type
func (s *StatsService) OrdersForCardType(ctx context.Context, cardType string) (_ []OrderView, err error) {
	ctx, span, done := s.begin(ctx, ReportOrdersForCardType)
	defer func() { done(err) }()

	ct, err := shop.ParseCardType(cardType)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCardType, ct.String())

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}
	orders := stats.OrdersForCardType(shop.Customers(customers...), ct)
	telemetry.SetAttributes(span, telemetry.SpanAttrResultSize, len(orders))
	return toOrderViews(orders), nil
}

// OrderSizes returns orders bucketed by total quantity, smallest size first
func (s *StatsService) OrderSizes(ctx context.Context) (_ []OrderSizeBucket, err error) {
	ctx, span, done := s.begin(ctx, ReportOrderSizes)
	defer func() { done(err) }()

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}
	return orderSizes(customers), nil
}

// HasColorProduct reports whether every order contains an item of the given color
func (s *StatsService) HasColorProduct(ctx context.Context, color string) (_ *ColorCheck, err error) {
	ctx, span, done := s.begin(ctx, ReportHasColorProduct)
	defer func() { done(err) }()

	c, err := shop.ParseColor(color)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrColor, c.String())

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}
	return colorCheck(customers, c), nil
}

// CardsCountForCustomer returns the distinct card count per customer email.
// An empty policy uses the configured default.
func (s *StatsService) CardsCountForCustomer(ctx context.Context, policy string) (_ map[string]int64, err error) {
	ctx, span, done := s.begin(ctx, ReportCardsCount)
	defer func() { done(err) }()

	p := s.cfg.DuplicatePolicy
	if policy != "" {
		if p, err = stats.ParseDuplicatePolicy(policy); err != nil {
			return nil, err
		}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPolicy, string(p))

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}
	return stats.CardsCountForCustomerWithPolicy(shop.Customers(customers...), p)
}

// MostPopularCountry returns the country with the most customers.
// It fails with shared.ErrNoData when there are no customers.
func (s *StatsService) MostPopularCountry(ctx context.Context) (_ *PopularCountry, err error) {
	ctx, span, done := s.begin(ctx, ReportPopularCountry)
	defer func() { done(err) }()

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}
	return popularCountry(customers)
}

// AveragePriceForCreditCard returns the quantity-weighted average item price of
// orders paid with cardNumber, accumulated over customer partitions in parallel.
func (s *StatsService) AveragePriceForCreditCard(ctx context.Context, cardNumber string) (_ *AveragePrice, err error) {
	ctx, span, done := s.begin(ctx, ReportAveragePrice)
	defer func() { done(err) }()

	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, fmt.Errorf("%w: card number is required", shared.ErrInvalidInput)
	}

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}
	return s.averagePrice(ctx, span, customers, cardNumber)
}

// Summary computes every report over a single load of the source, concurrently.
// Parameterized reports are included only when their SummaryRequest field is set.
func (s *StatsService) Summary(ctx context.Context, req SummaryRequest) (_ *Summary, err error) {
	ctx, span, done := s.begin(ctx, ReportSummary)
	defer func() { done(err) }()

	var (
		cardType shop.CardType
		color    shop.Color
	)
	if req.CardType != "" {
		if cardType, err = shop.ParseCardType(req.CardType); err != nil {
			return nil, err
		}
	}
	if req.Color != "" {
		if color, err = shop.ParseColor(req.Color); err != nil {
			return nil, err
		}
	}
	req.CardNumber = strings.TrimSpace(req.CardNumber)

	key := s.summaryKey(cardType, color, req.CardNumber)
	if cached, ok := s.cachedSummary(ctx, span, key); ok {
		return cached, nil
	}

	customers, err := s.load(ctx, span)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Source:        s.sourceName,
		CustomerCount: len(customers),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)

	g.Go(func() error {
		for range shop.AllOrders(shop.Customers(customers...)) {
			summary.OrderCount++
		}
		return nil
	})
	if cardType != "" {
		g.Go(func() error {
			summary.OrdersByCard = toOrderViews(stats.OrdersForCardType(shop.Customers(customers...), cardType))
			return nil
		})
	}
	g.Go(func() error {
		summary.OrderSizes = orderSizes(customers)
		return nil
	})
	if color != "" {
		g.Go(func() error {
			summary.ColorCheck = colorCheck(customers, color)
			return nil
		})
	}
	g.Go(func() error {
		counts, err := stats.CardsCountForCustomerWithPolicy(shop.Customers(customers...), s.cfg.DuplicatePolicy)
		summary.CardCounts = counts
		return err
	})
	g.Go(func() error {
		pc, err := popularCountry(customers)
		if errors.Is(err, shared.ErrNoData) {
			return nil
		}
		summary.PopularCountry = pc
		return err
	})
	if req.CardNumber != "" {
		g.Go(func() error {
			avg, err := s.averagePrice(gctx, span, customers, req.CardNumber)
			if errors.Is(err, shared.ErrNoData) {
				return nil
			}
			summary.AveragePrice = avg
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.storeSummary(ctx, key, summary)
	return summary, nil
}

// begin starts the span for a report and returns a completion func that records
// the outcome on the span, in the logs and in the metrics.
func (s *StatsService) begin(ctx context.Context, report string) (context.Context, trace.Span, func(error)) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stats", report,
		telemetry.WithAttribute(telemetry.SpanAttrReport, report),
	)
	start := time.Now()

	return ctx, span, func(err error) {
		defer span.End()
		elapsed := time.Since(start)
		log := s.log(ctx).With(zap.String("report", report), zap.Duration("elapsed", elapsed))

		outcome := telemetry.OutcomeSuccess
		switch {
		case err == nil:
			telemetry.SetOK(span)
			log.Debug("Report computed")
		case errors.Is(err, shared.ErrNoData):
			outcome = telemetry.OutcomeNoData
			log.Debug("Report has no data")
		default:
			outcome = telemetry.OutcomeError
			telemetry.RecordError(span, err)
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				log.Warn("Report rejected", zap.String("code", domainErr.Code), zap.Error(err))
			} else {
				log.Error("Report failed", zap.Error(err))
			}
		}
		s.metrics.RecordReport(ctx, report, outcome, elapsed)
	}
}

func (s *StatsService) log(ctx context.Context) *zap.Logger {
	l := s.logger
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	return logger.WithTraceContext(ctx, l)
}

func (s *StatsService) load(ctx context.Context, span trace.Span) ([]*shop.Customer, error) {
	customers, err := s.source.LoadCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers from %s source: %w", s.sourceName, err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerCount, len(customers))
	s.metrics.RecordCustomersLoaded(ctx, s.sourceName, len(customers))
	return customers, nil
}

// averagePrice splits customers into partitions, accumulates each concurrently
// and merges the partial accumulators before the single final division.
func (s *StatsService) averagePrice(ctx context.Context, span trace.Span, customers []*shop.Customer, cardNumber string) (*AveragePrice, error) {
	parts := slices.Collect(slices.Chunk(customers, s.cfg.PartitionSize))
	partials := make([]stats.WeightedAverage, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = stats.AccumulateCardPrices(shop.Customers(part...), cardNumber)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total stats.WeightedAverage
	for _, p := range partials {
		total.Merge(p)
	}
	telemetry.AddEvent(span, "partitions_merged",
		telemetry.SpanAttrPartitions, len(parts),
		telemetry.SpanAttrResultSize, total.Weight(),
	)

	avg, err := total.Average(s.cfg.AverageScale)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", shop.MaskCardNumber(cardNumber), err)
	}
	return &AveragePrice{
		CardNumber: shop.MaskCardNumber(cardNumber),
		Average:    avg,
		Scale:      s.cfg.AverageScale,
		Quantity:   total.Weight(),
	}, nil
}

func (s *StatsService) summaryKey(cardType shop.CardType, color shop.Color, cardNumber string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		s.sourceName, string(cardType), string(color), cardNumber,
		string(s.cfg.DuplicatePolicy), fmt.Sprint(s.cfg.AverageScale),
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}

func (s *StatsService) cachedSummary(ctx context.Context, span trace.Span, key string) (*Summary, bool) {
	if s.cache == nil || s.cfg.SummaryCacheTTL <= 0 {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log(ctx).Warn("Summary cache read failed", zap.Error(err))
		return nil, false
	}
	var summary Summary
	if ok {
		if err := json.Unmarshal(data, &summary); err != nil {
			s.log(ctx).Warn("Discarding undecodable cached summary", zap.Error(err))
			ok = false
		}
	}
	s.metrics.RecordCacheLookup(ctx, ok)
	telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, ok)
	if !ok {
		return nil, false
	}
	summary.Cached = true
	return &summary, true
}

func (s *StatsService) storeSummary(ctx context.Context, key string, summary *Summary) {
	if s.cache == nil || s.cfg.SummaryCacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		s.log(ctx).Warn("Summary encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.SummaryCacheTTL); err != nil {
		s.log(ctx).Warn("Summary cache write failed", zap.Error(err))
	}
}

func orderSizes(customers []*shop.Customer) []OrderSizeBucket {
	sizes := stats.OrderSizes(shop.AllOrders(shop.Customers(customers...)))
	buckets := make([]OrderSizeBucket, 0, len(sizes))
	for size, orders := range sizes {
		buckets = append(buckets, OrderSizeBucket{Size: size, Orders: toOrderViews(orders)})
	}
	slices.SortFunc(buckets, func(a, b OrderSizeBucket) int { return cmp.Compare(a.Size, b.Size) })
	return buckets
}

func colorCheck(customers []*shop.Customer, color shop.Color) *ColorCheck {
	checked := 0
	orders := func(yield func(*shop.Order) bool) {
		for o := range shop.AllOrders(shop.Customers(customers...)) {
			checked++
			if !yield(o) {
				return
			}
		}
	}
	return &ColorCheck{
		Color:              color.String(),
		AllOrdersHaveColor: stats.HasColorProduct(orders, color),
		OrdersChecked:      checked,
	}
}

func popularCountry(customers []*shop.Customer) (*PopularCountry, error) {
	ranking := stats.CountryRanking(shop.Customers(customers...))
	if len(ranking) == 0 {
		return nil, fmt.Errorf("%w: no customers to rank", shared.ErrNoData)
	}
	return &PopularCountry{
		Country: ranking[0].Country,
		Count:   ranking[0].Count,
		Ranking: ranking,
	}, nil
}
