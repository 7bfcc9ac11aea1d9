package server

import (
	"github.com/gin-gonic/gin"

	"github.com/truongnh28/bookstore/cart"
	"github.com/truongnh28/bookstore/checkout"
	"github.com/truongnh28/bookstore/discount"
	"github.com/truongnh28/bookstore/repository"
)

type Server struct {
	carts        *cart.Service
	checkout     *checkout.Orchestrator
	discounts    *discount.Service
	users        repository.UserRepository
	transactions repository.TransactionRepository
}

func New(
	carts *cart.Service,
	orchestrator *checkout.Orchestrator,
	discounts *discount.Service,
	users repository.UserRepository,
	transactions repository.TransactionRepository,
) *Server {
	return &Server{
		carts:        carts,
		checkout:     orchestrator,
		discounts:    discounts,
		users:        users,
		transactions: transactions,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	api.GET("/cart/:id", s.viewCart)
	api.POST("/cart/add", s.addToCart)
	api.POST("/cart/remove", s.removeFromCart)

	api.POST("/transaction/checkout", s.checkoutCart)
	api.GET("/transaction", s.listTransactions)
	api.GET("/transaction/user/:id", s.listUserTransactions)

	api.GET("/discount", s.listDiscounts)
	api.POST("/discount", s.createDiscount)
	api.PATCH("/discount", s.updateDiscount)
	api.DELETE("/discount", s.deleteDiscount)

	api.POST("/balance/topup", s.topUpBalance)

	return router
}
