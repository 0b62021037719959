package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agribazaar/agribazaar-backend/api/controllers"
	"github.com/agribazaar/agribazaar-backend/api/middleware"
	"github.com/agribazaar/agribazaar-backend/internal/orders"
	"github.com/agribazaar/agribazaar-backend/internal/wallet"
	"github.com/agribazaar/agribazaar-backend/pkg/config"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
	"github.com/agribazaar/agribazaar-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface depends on.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   *redis.Client
	Wallet  wallet.Service
	Orders  orders.Service
	Pingers map[string]controllers.Pinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.API.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Pingers))
	})

	writePolicy := middleware.NewRateLimitPolicy(
		"write",
		cfg.API.RateLimitWindow,
		cfg.API.RateLimitPerUser,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		if params.Redis != nil {
			r.Use(
				middleware.RateLimit(writePolicy, params.Redis, logg),
				middleware.Idempotency(params.Redis, logg),
			)
		}

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(params.Wallet, logg))
			r.Get("/transactions", controllers.WalletTransactions(params.Wallet, logg))
			r.Post("/topup", controllers.WalletTopup(params.Wallet, logg))
			r.Post("/withdraw", controllers.WalletWithdraw(params.Wallet, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(params.Orders, logg))
			r.Get("/", controllers.OrderList(params.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.OrderGet(params.Orders, logg))
				r.Post("/confirm", controllers.OrderConfirm(params.Orders, logg))
				r.Post("/processing", controllers.OrderTransition(logg, controllers.StartProcessing(params.Orders)))
				r.Post("/dispatch", controllers.OrderTransition(logg, controllers.MarkOutForDelivery(params.Orders)))
				r.Post("/delivered", controllers.OrderTransition(logg, controllers.MarkDelivered(params.Orders)))
				r.Post("/cancel", controllers.OrderCancel(params.Orders, logg))
			})
		})
	})

	return r
}
