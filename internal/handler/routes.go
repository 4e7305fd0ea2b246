package handler

import (
	"github.com/fintrackable/fintrackable-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, rateLimiter *middleware.RateLimiter, importHandler *ImportHandler, transactionHandler *TransactionHandler, categoryHandler *CategoryHandler, dashboardHandler *DashboardHandler, preferenceHandler *PreferenceHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(middleware.ResolveOwner())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Import routes
	imports := api.Group("/imports")
	imports.POST("", importHandler.StartImport)
	imports.GET("/:id", importHandler.GetImport)
	imports.GET("/:id/statement", importHandler.GetStatementURL)
	imports.PATCH("/:id/rows/:index", importHandler.SetRowCategory)
	imports.POST("/:id/commit", importHandler.CommitImport)
	imports.DELETE("/:id", importHandler.CancelImport)

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.GET("", transactionHandler.GetLedger)
	transactions.DELETE("", transactionHandler.DeleteAllTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id/category", transactionHandler.SetCategory)
	transactions.PATCH("/:id/toggle-confirmed", transactionHandler.ToggleConfirmed)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Category routes
	categories := api.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("/defaults", categoryHandler.EnsureDefaults)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.PUT("/:id/rules", categoryHandler.UpdateRules)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.GET("/summary", dashboardHandler.GetSummary)
	dashboard.GET("/monthly", dashboardHandler.GetMonthlySummaries)
	dashboard.GET("/categories", dashboardHandler.GetCategoryTotals)
	dashboard.GET("/categories/monthly", dashboardHandler.GetCategoryMonthlyTotals)
	dashboard.GET("/years", dashboardHandler.GetYearSummaries)

	// Preference routes
	preferences := api.Group("/preferences")
	preferences.GET("", preferenceHandler.GetPreferences)
	preferences.PUT("", preferenceHandler.UpdatePreferences)

	// WebSocket route (owner resolved by the same gateway header)
	e.GET("/ws", wsHandler.HandleWS, middleware.ResolveOwner())
}
