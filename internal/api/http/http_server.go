package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkhachatrian/rubamd-exchange/internal/api/dto"
	"github.com/mkhachatrian/rubamd-exchange/internal/core"
	"github.com/mkhachatrian/rubamd-exchange/internal/domain"
	"github.com/mkhachatrian/rubamd-exchange/internal/middleware"
)

// HTTPServer hosts the engine behind a gin router. The engine is
// single-caller by contract, so the server serializes all engine access
// behind its own mutex.
type HTTPServer struct {
	eng *core.Engine
	mu  sync.Mutex
}

func NewHTTPServer(eng *core.Engine) *HTTPServer {
	return &HTTPServer{eng: eng}
}

func (s *HTTPServer) Run(addr string) error {
	r := gin.Default()

	rl := middleware.NewRateLimiter(100 * time.Millisecond)
	r.Use(rl.Middleware())

	r.POST("/orders", s.placeOrder)
	r.POST("/orders/cancel", s.cancelOrder)
	r.GET("/orders", s.listOrders)
	r.GET("/stats", s.getStats)

	return r.Run(addr)
}

func (s *HTTPServer) placeOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o := domain.Order{
		User:           domain.User{ID: req.UserID, Name: req.UserName},
		Side:           domain.Side(req.Side),
		Price:          req.Price,
		RelativeRate:   req.RelativeRate,
		AmountInitial:  req.Amount,
		AmountLeft:     req.Amount,
		MinOpThreshold: req.MinOpThreshold,
		LifetimeSec:    req.LifetimeSec,
	}

	s.mu.Lock()
	stored, err := s.eng.PlaceOrder(c.Request.Context(), o)
	s.mu.Unlock()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrLifetimeExceeded) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.PlaceOrderResponse{
		OrderID: stored.ID,
		Message: "We got your order",
	})
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A user must not learn whether someone else's order id exists.
	owned := false
	for _, o := range s.eng.ListOrdersForUser(req.UserID) {
		if o.ID == req.OrderID {
			owned = true
			break
		}
	}
	if !owned {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrOrderNotFound.Error()})
		return
	}
	if err := s.eng.RemoveOrder(c.Request.Context(), req.OrderID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: req.OrderID, Cancelled: true})
}

func (s *HTTPServer) listOrders(c *gin.Context) {
	var q struct {
		UserID int64 `form:"user_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	orders := s.eng.ListOrdersForUser(q.UserID)
	s.mu.Unlock()

	c.JSON(http.StatusOK, dto.ListOrdersResponse{Orders: convertOrders(orders)})
}

func (s *HTTPServer) getStats(c *gin.Context) {
	s.mu.Lock()
	st := s.eng.GetStats(c.Request.Context())
	s.mu.Unlock()

	resp := dto.StatsResponse{
		OrderCount:          st.OrderCount,
		UserCount:           st.UserCount,
		BestBuyerPrice:      st.BestBuyerPrice,
		BestBuyerThreshold:  st.BestBuyerThreshold,
		BestSellerPrice:     st.BestSellerPrice,
		BestSellerThreshold: st.BestSellerThreshold,
		TotalBuyerAmount:    st.TotalBuyerAmount,
		TotalSellerAmount:   st.TotalSellerAmount,
		LastMatchPrice:      st.LastMatchPrice,
		Text:                core.RenderStats(st),
	}
	if st.CurrentRate != nil {
		rate := st.CurrentRate.Rate.String()
		date := st.CurrentRate.Date
		resp.CurrentRate = &rate
		resp.RateDate = &date
	}
	c.JSON(http.StatusOK, resp)
}

func convertOrders(orders []domain.Order) []dto.Order {
	res := make([]dto.Order, len(orders))
	for i, o := range orders {
		res[i] = dto.Order{
			ID:             o.ID,
			UserID:         o.User.ID,
			UserName:       o.User.Name,
			Side:           dto.Side(o.Side),
			Price:          o.Price,
			RelativeRate:   o.RelativeRate,
			AmountInitial:  o.AmountInitial,
			AmountLeft:     o.AmountLeft,
			MinOpThreshold: o.MinOpThreshold,
			LifetimeSec:    o.LifetimeSec,
			CreationTime:   o.CreationTime,
		}
	}
	return res
}
