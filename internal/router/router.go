package router

import (
	"net/http"

	"github.com/clausewise/backend/internal/auth"
	"github.com/clausewise/backend/internal/catalog"
	"github.com/clausewise/backend/internal/documents"
	"github.com/clausewise/backend/internal/jobs"
	"github.com/clausewise/backend/internal/ledger"
	"github.com/clausewise/backend/internal/middleware"
)

// New returns an http.Handler serving the API under /api/v1.
func New(
	authHandler *auth.Handler,
	walletHandler *ledger.Handler,
	docHandler *documents.Handler,
	jobHandler *jobs.Handler,
	catalogHandler *catalog.Handler,
	validator middleware.TokenValidator,
) http.Handler {
	mux := http.NewServeMux()
	authed := middleware.Auth(validator)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(h))
	}

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/account/me", authed(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /api/v1/wallet", authed(http.HandlerFunc(walletHandler.GetWallet)))
	mux.Handle("GET /api/v1/wallet/transactions", authed(http.HandlerFunc(walletHandler.ListTransactions)))
	mux.Handle("POST /api/v1/wallet/credit", authed(http.HandlerFunc(walletHandler.Credit)))
	mux.Handle("POST /api/v1/accounts/{id}/credit", admin(walletHandler.CreditOther))

	mux.Handle("POST /api/v1/documents", authed(http.HandlerFunc(docHandler.Create)))
	mux.Handle("GET /api/v1/documents", authed(http.HandlerFunc(docHandler.List)))
	mux.Handle("GET /api/v1/documents/{id}", authed(http.HandlerFunc(docHandler.Get)))

	mux.Handle("GET /api/v1/models", authed(http.HandlerFunc(catalogHandler.List)))

	mux.Handle("POST /api/v1/jobs", authed(http.HandlerFunc(jobHandler.Enqueue)))
	mux.Handle("GET /api/v1/jobs", authed(http.HandlerFunc(jobHandler.List)))
	mux.Handle("GET /api/v1/jobs/{id}", authed(http.HandlerFunc(jobHandler.Get)))

	return mux
}
