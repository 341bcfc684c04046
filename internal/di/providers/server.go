package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/memoriaapp/memoria-server/internal/api"
	"github.com/memoriaapp/memoria-server/internal/config"
	"github.com/memoriaapp/memoria-server/internal/logger"
	"github.com/memoriaapp/memoria-server/internal/service"
	"github.com/memoriaapp/memoria-server/internal/session"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*session.Store](i)
	limiterHandle := do.MustInvoke[*ActionLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Recall:   do.MustInvoke[*service.RecallService](i),
		Carousel: do.MustInvoke[*service.CarouselService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, sessions, limiterHandle.UserLimiter, cfg.Server.CORSOrigins, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
