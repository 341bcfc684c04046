package providers

import (
	"github.com/samber/do/v2"

	"github.com/memoriaapp/memoria-server/internal/logger"
	"github.com/memoriaapp/memoria-server/internal/search"
)

// SuggestIndexHandle wraps the suggestion index with shutdown capability.
type SuggestIndexHandle struct {
	*search.SuggestIndex
}

// Shutdown implements do.Shutdownable.
func (h *SuggestIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSuggestIndex provides the in-memory tag suggestion index.
func ProvideSuggestIndex(i do.Injector) (*SuggestIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	idx, err := search.NewSuggestIndex(log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Tag suggestion index initialized")

	return &SuggestIndexHandle{SuggestIndex: idx}, nil
}

// ProvideSearchEngine provides the ranked search engine.
func ProvideSearchEngine(i do.Injector) (*search.Engine, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return search.NewEngine(storeHandle.Store, log.Logger), nil
}
