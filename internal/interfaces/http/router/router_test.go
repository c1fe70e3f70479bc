package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	assert.Equal(t, "v2", NewRouter(gin.New(), WithAPIVersion("v2")).apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("stats", "/stats")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/stats/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/stats/ping").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("stats", "/stats")
		assert.Equal(t, "stats", g.Name())
		assert.Equal(t, "/stats", g.Prefix())
	})

	t.Run("registers GET routes only", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("test", "/test").
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/test/items").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/api/v1/test/items").Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("stats", "/stats")
		g.Group("orders", "/orders").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "orders")
		})
		g.Group("customers", "/customers").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "customers")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "orders", serve(engine, http.MethodGet, "/api/v1/stats/orders").Body.String())
		assert.Equal(t, "customers", serve(engine, http.MethodGet, "/api/v1/stats/customers").Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	stats := NewDomainGroup("stats", "/stats").GET("/orders", func(c *gin.Context) {
		c.String(http.StatusOK, "orders")
	})
	admin := NewDomainGroup("admin", "/admin").GET("/config", func(c *gin.Context) {
		c.String(http.StatusOK, "config")
	})
	r.Register(stats).Register(admin).Setup()

	assert.Equal(t, "orders", serve(engine, http.MethodGet, "/api/v1/stats/orders").Body.String())
	assert.Equal(t, "config", serve(engine, http.MethodGet, "/api/v1/admin/config").Body.String())
}
