package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything mounted under /api.
type Handlers struct {
	Quotes   *QuoteHandler
	Coupons  *CouponHandler
	Settings *SettingsHandler
}

// RegisterAPI mounts the owner-scoped API on router. Every route requires X-User-ID.
func RegisterAPI(router fiber.Router, h Handlers) {
	api := router.Group("/api", RequireOwner())

	api.Get("/settings", h.Settings.GetSettings)
	api.Put("/settings", h.Settings.UpdateSettings)

	// Static segments before :id so they are not captured as ids
	api.Post("/quotes/preview", h.Quotes.PreviewQuote)
	api.Post("/quotes", h.Quotes.CreateQuote)
	api.Get("/quotes", h.Quotes.ListQuotes)
	api.Get("/quotes/:id/share", h.Quotes.ShareQuote)
	api.Get("/quotes/:id", h.Quotes.GetQuote)
	api.Patch("/quotes/:id", h.Quotes.UpdateQuote)
	api.Delete("/quotes/:id", h.Quotes.DeleteQuote)

	api.Post("/coupons/validate", h.Coupons.ValidateCoupon)
	api.Post("/coupons", h.Coupons.CreateCoupon)
	api.Get("/coupons", h.Coupons.ListCoupons)
	api.Get("/coupons/:code", h.Coupons.GetCoupon)
	api.Patch("/coupons/:code", h.Coupons.SetCouponActive)
}
