// Package di provides dependency injection configuration for the Memoria server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/memoriaapp/memoria-server/internal/config"
	"github.com/memoriaapp/memoria-server/internal/di/providers"
	"github.com/memoriaapp/memoria-server/internal/logger"
	"github.com/memoriaapp/memoria-server/internal/search"
	"github.com/memoriaapp/memoria-server/internal/service"
	"github.com/memoriaapp/memoria-server/internal/session"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchEngine)
	do.Provide(injector, providers.ProvideSuggestIndex)

	// Session and delivery
	do.Provide(injector, providers.ProvideSessionStore)
	do.Provide(injector, providers.ProvideDeliverer)
	do.Provide(injector, providers.ProvideActionLimiter)

	// Business services
	do.Provide(injector, providers.ProvideRecallService)
	do.Provide(injector, providers.ProvideCarouselService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap invokes every service so misconfigurations surface at
// startup instead of on the first request.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*search.Engine](injector)
	_ = do.MustInvoke[*providers.SuggestIndexHandle](injector)
	_ = do.MustInvoke[*session.Store](injector)
	_ = do.MustInvoke[service.Deliverer](injector)
	_ = do.MustInvoke[*providers.ActionLimiterHandle](injector)
	_ = do.MustInvoke[*service.RecallService](injector)
	_ = do.MustInvoke[*service.CarouselService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
