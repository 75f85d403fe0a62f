package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
)

func (s *Server) Checkout(c *gin.Context) {
	var req orderdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserID = nil

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("order_number", order.OrderNumber)
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

// GetOrderByNumber is the customer's order tracking view. The caller must
// present the email the order was placed with.
func (s *Server) GetOrderByNumber(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		AbortWithError(c, newValidationError("email", "invalid_email", "email is required"))
		return
	}

	order, err := s.orderSvc.GetByNumber(c.Request.Context(), strings.TrimSpace(c.Param("number")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !strings.EqualFold(order.Email, email) {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}

	c.Set("order_number", order.OrderNumber)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"order_number":    order.OrderNumber,
		"status":          order.Status,
		"status_label":    order.Status.Label(),
		"customer_name":   order.CustomerName,
		"items":           order.Items,
		"discount_amount": order.DiscountAmount,
		"total_amount":    order.TotalAmount,
		"created_at":      order.CreatedAt,
		"updated_at":      order.UpdatedAt,
	}})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		Status   string `form:"status"`
		Email    string `form:"email"`
		UserID   string `form:"user_id"`
		Page     string `form:"page"`
		PageSize string `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseOptionalID(query.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
		return
	}
	page, err := parseOptionalInt(query.Page)
	if err != nil {
		AbortWithError(c, newValidationError("page", "invalid_page", "invalid page"))
		return
	}
	pageSize, err := parseOptionalInt(query.PageSize)
	if err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListRequest{
		Status:   query.Status,
		Email:    strings.TrimSpace(query.Email),
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("order_number", order.OrderNumber)
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) TransitionOrder(c *gin.Context) {
	var req orderdomain.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrderID = strings.TrimSpace(c.Param("id"))
	req.ActorID = actorID(c)

	order, err := s.orderSvc.Transition(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("order_number", order.OrderNumber)
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) AddOrderNote(c *gin.Context) {
	var req orderdomain.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrderID = strings.TrimSpace(c.Param("id"))
	req.UserID = actorID(c)

	note, err := s.orderSvc.AddNote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": note})
}

func (s *Server) ListOrderNotes(c *gin.Context) {
	notes, err := s.orderSvc.ListNotes(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func (s *Server) DeleteOrderNote(c *gin.Context) {
	if err := s.orderSvc.DeleteNote(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DownloadReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	receipt, err := s.orderSvc.Receipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", receipt, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, id),
	})
}
