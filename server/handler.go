package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/truongnh28/bookstore/domain"
)

func (s *Server) viewCart(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	if _, ok := authorize(c, capSelf, uint(targetID)); !ok {
		return
	}

	view, err := s.carts.View(c.Request.Context(), uint(targetID))
	if err != nil {
		respondError(c, "failed to view cart", err)
		return
	}
	respond(c, http.StatusOK, "get user cart", view)
}

func (s *Server) addToCart(c *gin.Context) {
	principal, ok := authorize(c, capUser, 0)
	if !ok {
		return
	}
	var req domain.CartItemRequest
	if err := c.BindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := s.carts.Add(c.Request.Context(), principal.UserID, req.BookID, req.Quantity)
	if err != nil {
		respondError(c, "failed to add item to cart", err)
		return
	}
	respond(c, http.StatusOK, "item added to cart", nil)
}

func (s *Server) removeFromCart(c *gin.Context) {
	principal, ok := authorize(c, capUser, 0)
	if !ok {
		return
	}
	var req domain.CartItemRequest
	if err := c.BindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := s.carts.Remove(c.Request.Context(), principal.UserID, req.BookID, req.Quantity)
	if err != nil {
		respondError(c, "failed to remove item from cart", err)
		return
	}
	respond(c, http.StatusOK, "item removed from cart", nil)
}

func (s *Server) checkoutCart(c *gin.Context) {
	principal, ok := authorize(c, capUser, 0)
	if !ok {
		return
	}

	requestID := c.GetHeader("X-Request-Id")
	trx, err := s.checkout.Settle(c.Request.Context(), principal.UserID, requestID)
	if err != nil {
		respondError(c, "failed to create transaction", err)
		return
	}
	respond(c, http.StatusCreated, "transaction created", trx)
}

func (s *Server) listTransactions(c *gin.Context) {
	if _, ok := authorize(c, capAdmin, 0); !ok {
		return
	}

	transactions, err := s.transactions.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, "failed to get transactions", err)
		return
	}
	respond(c, http.StatusOK, "get all transactions", transactions)
}

func (s *Server) listUserTransactions(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	if _, ok := authorize(c, capSelfOrAdmin, uint(targetID)); !ok {
		return
	}

	transactions, err := s.transactions.ListByUser(c.Request.Context(), uint(targetID))
	if err != nil {
		respondError(c, "failed to get user transactions", err)
		return
	}
	respond(c, http.StatusOK, "get user transactions", transactions)
}

func (s *Server) listDiscounts(c *gin.Context) {
	if _, ok := authorize(c, capSuperAdmin, 0); !ok {
		return
	}

	discounts, err := s.discounts.List(c.Request.Context())
	if err != nil {
		respondError(c, "failed to get discounts", err)
		return
	}
	respond(c, http.StatusOK, "get all discounts", discounts)
}

func (s *Server) createDiscount(c *gin.Context) {
	if _, ok := authorize(c, capAdmin, 0); !ok {
		return
	}
	var req domain.CreateDiscountRequest
	if err := c.BindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := s.discounts.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to add discount", err)
		return
	}
	respond(c, http.StatusCreated, "discount added", created)
}

func (s *Server) updateDiscount(c *gin.Context) {
	if _, ok := authorize(c, capAdmin, 0); !ok {
		return
	}
	var req domain.UpdateDiscountRequest
	if err := c.BindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := s.discounts.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to update discount", err)
		return
	}
	respond(c, http.StatusOK, "discount updated", updated)
}

func (s *Server) deleteDiscount(c *gin.Context) {
	if _, ok := authorize(c, capSuperAdmin, 0); !ok {
		return
	}
	var req domain.DeleteDiscountRequest
	if err := c.BindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := s.discounts.Delete(c.Request.Context(), req.DiscountID); err != nil {
		respondError(c, "failed to delete discount", err)
		return
	}
	respond(c, http.StatusOK, "discount deleted", nil)
}

func (s *Server) topUpBalance(c *gin.Context) {
	principal, ok := authorize(c, capUser, 0)
	if !ok {
		return
	}
	var req domain.TopUpRequest
	if err := c.BindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := s.users.Credit(c.Request.Context(), principal.UserID, req.Amount); err != nil {
		respondError(c, "failed to top up balance", err)
		return
	}
	respond(c, http.StatusOK, "balance credited", nil)
}
