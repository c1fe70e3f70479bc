package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	reportapp "github.com/erp/orderstats/internal/application/report"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/erp/orderstats/internal/interfaces/http/dto"
	"github.com/erp/orderstats/internal/interfaces/http/middleware"
	"github.com/erp/orderstats/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type staticSource []*shop.Customer

func (s staticSource) LoadCustomers(context.Context) ([]*shop.Customer, error) {
	return s, nil
}

func (s staticSource) Name() string {
	return "static"
}

func testCustomers() staticSource {
	item := func(price string, color shop.Color, qty int) shop.OrderItem {
		return shop.MustNewOrderItem(shop.MustNewProduct("widget", decimal.RequireFromString(price), color), qty)
	}
	return staticSource{
		shop.MustNewCustomer("ann@example.com", shop.MustNewAddress("USA"),
			shop.NewOrder(shop.MustNewPaymentInfo(shop.CardTypeVisa, "4111111111111111"), item("10", shop.ColorRed, 2)),
		),
		shop.MustNewCustomer("bob@example.com", shop.MustNewAddress("USA"),
			shop.NewOrder(shop.MustNewPaymentInfo(shop.CardTypeMasterCard, "5500000000000004"), item("4", shop.ColorBlue, 1)),
		),
		shop.MustNewCustomer("ann@example.com", shop.MustNewAddress("Chad")),
	}
}

func setupRouter(stats StatsReporter) *gin.Engine {
	engine := gin.New()
	r := router.NewRouter(engine)
	r.Register(NewStatsHandler(stats).Routes())
	r.Setup()
	return engine
}

func get(t *testing.T, engine *gin.Engine, path string) (int, dto.Response, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	return w.Code, resp, raw
}

func TestStatsHandler_Endpoints(t *testing.T) {
	engine := setupRouter(reportapp.NewStatsService(testCustomers()))

	t.Run("orders by card type", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/orders?card_type=VISA")

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, "static", resp.Meta.Source)
		assert.Equal(t, 1, resp.Meta.Count)

		orders := resp.Data.([]any)
		order := orders[0].(map[string]any)
		assert.Equal(t, "************1111", order["card_number"])
		assert.Equal(t, "20", order["total"])
	})

	t.Run("order sizes", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/order-sizes")

		assert.Equal(t, http.StatusOK, code)
		buckets := resp.Data.([]any)
		require.Len(t, buckets, 2)
		assert.Equal(t, float64(1), buckets[0].(map[string]any)["size"])
		assert.Equal(t, float64(2), buckets[1].(map[string]any)["size"])
	})

	t.Run("color check", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/color-check?color=red")

		assert.Equal(t, http.StatusOK, code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "RED", data["color"])
		assert.Equal(t, false, data["all_orders_have_color"])
	})

	t.Run("card counts with policy", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/card-counts?policy=keep_first")

		assert.Equal(t, http.StatusOK, code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(1), data["ann@example.com"])
		assert.Equal(t, float64(1), data["bob@example.com"])
	})

	t.Run("card counts default policy keeps last", func(t *testing.T) {
		_, resp, _ := get(t, engine, "/api/v1/stats/card-counts")

		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(0), data["ann@example.com"])
	})

	t.Run("duplicate emails conflict under fail policy", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/card-counts?policy=fail")

		assert.Equal(t, http.StatusConflict, code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeDuplicateEmail, resp.Error.Code)
	})

	t.Run("popular country", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/popular-country")

		assert.Equal(t, http.StatusOK, code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "USA", data["country"])
		assert.Equal(t, float64(2), data["count"])
	})

	t.Run("average price", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/average-price?card_number=4111111111111111")

		assert.Equal(t, http.StatusOK, code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "10", data["average"])
		assert.Equal(t, "************1111", data["card_number"])
		assert.Equal(t, 2, resp.Meta.Count)
	})

	t.Run("average price without matches is 404", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/average-price?card_number=0000")

		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, dto.ErrCodeNoData, resp.Error.Code)
	})

	t.Run("summary", func(t *testing.T) {
		code, resp, _ := get(t, engine, "/api/v1/stats/summary?card_type=MASTERCARD&color=BLUE&card_number=5500000000000004")

		assert.Equal(t, http.StatusOK, code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(3), data["customer_count"])
		assert.Equal(t, float64(2), data["order_count"])
		assert.Len(t, data["orders_by_card"], 1)
		assert.Equal(t, "4", data["average_price"].(map[string]any)["average"])
		assert.Equal(t, 3, resp.Meta.Count)
		assert.False(t, resp.Meta.Cached)
	})
}

func TestStatsHandler_Validation(t *testing.T) {
	engine := setupRouter(reportapp.NewStatsService(testCustomers()))

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"missing card type", "/api/v1/stats/orders", http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown card type", "/api/v1/stats/orders?card_type=JCB", http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"missing color", "/api/v1/stats/color-check", http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown color", "/api/v1/stats/color-check?color=PINK", http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"unknown policy", "/api/v1/stats/card-counts?policy=merge", http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing card number", "/api/v1/stats/average-price", http.StatusBadRequest, dto.ErrCodeValidation},
		{"summary unknown color", "/api/v1/stats/summary?color=PINK", http.StatusBadRequest, dto.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp, _ := get(t, engine, tt.path)

			assert.Equal(t, tt.status, code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

// MockStatsReporter is a mock implementation of StatsReporter
type MockStatsReporter struct {
	mock.Mock
}

func (m *MockStatsReporter) SourceName() string {
	return "mock"
}

func (m *MockStatsReporter) OrdersForCardType(ctx context.Context, cardType string) ([]reportapp.OrderView, error) {
	args := m.Called(ctx, cardType)
	orders, _ := args.Get(0).([]reportapp.OrderView)
	return orders, args.Error(1)
}

func (m *MockStatsReporter) OrderSizes(ctx context.Context) ([]reportapp.OrderSizeBucket, error) {
	args := m.Called(ctx)
	buckets, _ := args.Get(0).([]reportapp.OrderSizeBucket)
	return buckets, args.Error(1)
}

func (m *MockStatsReporter) HasColorProduct(ctx context.Context, color string) (*reportapp.ColorCheck, error) {
	args := m.Called(ctx, color)
	check, _ := args.Get(0).(*reportapp.ColorCheck)
	return check, args.Error(1)
}

func (m *MockStatsReporter) CardsCountForCustomer(ctx context.Context, policy string) (map[string]int64, error) {
	args := m.Called(ctx, policy)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

func (m *MockStatsReporter) MostPopularCountry(ctx context.Context) (*reportapp.PopularCountry, error) {
	args := m.Called(ctx)
	country, _ := args.Get(0).(*reportapp.PopularCountry)
	return country, args.Error(1)
}

func (m *MockStatsReporter) AveragePriceForCreditCard(ctx context.Context, cardNumber string) (*reportapp.AveragePrice, error) {
	args := m.Called(ctx, cardNumber)
	avg, _ := args.Get(0).(*reportapp.AveragePrice)
	return avg, args.Error(1)
}

func (m *MockStatsReporter) Summary(ctx context.Context, req reportapp.SummaryRequest) (*reportapp.Summary, error) {
	args := m.Called(ctx, req)
	summary, _ := args.Get(0).(*reportapp.Summary)
	return summary, args.Error(1)
}

func TestStatsHandler_Errors(t *testing.T) {
	t.Run("unexpected errors are hidden", func(t *testing.T) {
		stats := new(MockStatsReporter)
		stats.On("OrderSizes", mock.Anything).Return(nil, errors.New("connection reset by peer"))

		code, resp, _ := get(t, setupRouter(stats), "/api/v1/stats/order-sizes")

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "connection reset")
		stats.AssertExpectations(t)
	})

	t.Run("deadline exceeded is a gateway timeout", func(t *testing.T) {
		stats := new(MockStatsReporter)
		stats.On("MostPopularCountry", mock.Anything).Return(nil, context.DeadlineExceeded)

		code, resp, _ := get(t, setupRouter(stats), "/api/v1/stats/popular-country")

		assert.Equal(t, http.StatusGatewayTimeout, code)
		assert.Equal(t, dto.ErrCodeTimeout, resp.Error.Code)
	})

	t.Run("summary query is forwarded", func(t *testing.T) {
		stats := new(MockStatsReporter)
		want := reportapp.SummaryRequest{CardType: "VISA", Color: "RED", CardNumber: "4111"}
		stats.On("Summary", mock.Anything, want).Return(&reportapp.Summary{Source: "mock", CustomerCount: 7, Cached: true}, nil)

		code, resp, _ := get(t, setupRouter(stats), "/api/v1/stats/summary?card_type=VISA&color=RED&card_number=4111")

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, resp.Meta.Cached)
		assert.Equal(t, 7, resp.Meta.Count)
		stats.AssertExpectations(t)
	})
}
