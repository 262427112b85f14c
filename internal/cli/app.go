package cli

import (
	"github.com/roach88/scaffold/internal/lifecycle"
	"github.com/roach88/scaffold/internal/store"
)

// app bundles the store and the lifecycle service a command works with.
type app struct {
	store  *store.Store
	models *lifecycle.Service
}

// openApp opens the configured database and builds the lifecycle service
// with the configured compliance gate and retry bound.
func (o *RootOptions) openApp() (*app, error) {
	checker, err := o.Config.Checker()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load compliance rules", err)
	}

	st, err := store.Open(o.Config.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	models := lifecycle.New(st,
		lifecycle.WithChecker(checker),
		lifecycle.WithLogger(o.Logger),
		lifecycle.WithMaxAttempts(o.Config.MaxAttempts),
	)
	return &app{store: st, models: models}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
