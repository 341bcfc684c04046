package providers

import (
	"github.com/samber/do/v2"

	"github.com/memoriaapp/memoria-server/internal/config"
	"github.com/memoriaapp/memoria-server/internal/logger"
	"github.com/memoriaapp/memoria-server/internal/ratelimit"
	"github.com/memoriaapp/memoria-server/internal/search"
	"github.com/memoriaapp/memoria-server/internal/service"
	"github.com/memoriaapp/memoria-server/internal/session"
)

// ProvideSessionStore provides the carousel session store.
func ProvideSessionStore(i do.Injector) (*session.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return session.NewStore(cfg.Session.TTL, nil, log.Logger), nil
}

// ProvideDeliverer provides the webhook media deliverer.
func ProvideDeliverer(i do.Injector) (service.Deliverer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWebhookDeliverer(cfg.Delivery.Timeout, cfg.Delivery.MaxPayloadBytes, log.Logger), nil
}

// ActionLimiterHandle wraps the per-user limiter with shutdown capability.
type ActionLimiterHandle struct {
	*ratelimit.UserLimiter
}

// Shutdown implements do.Shutdownable.
func (h *ActionLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideActionLimiter provides the per-user action rate limiter.
func ProvideActionLimiter(i do.Injector) (*ActionLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &ActionLimiterHandle{
		UserLimiter: ratelimit.NewUserLimiter(cfg.Actions.RatePerSecond, cfg.Actions.Burst),
	}, nil
}

// ProvideRecallService provides the recall/ingest service.
func ProvideRecallService(i do.Injector) (*service.RecallService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*search.Engine](i)
	suggestHandle := do.MustInvoke[*SuggestIndexHandle](i)
	sessions := do.MustInvoke[*session.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecallService(storeHandle.Store, engine, suggestHandle.SuggestIndex, sessions, log.Logger), nil
}

// ProvideCarouselService provides the carousel controller.
func ProvideCarouselService(i do.Injector) (*service.CarouselService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*session.Store](i)
	deliverer := do.MustInvoke[service.Deliverer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCarouselService(storeHandle.Store, sessions, deliverer, nil, log.Logger), nil
}
