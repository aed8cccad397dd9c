package session

import (
	"github.com/inkwell-notebook/inkwell/config"
	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/kernel/backend/hostengine"
	"github.com/inkwell-notebook/inkwell/kernel/backend/jsvm"
	"github.com/inkwell-notebook/inkwell/kernel/backend/pyproc"
	"github.com/inkwell-notebook/inkwell/kernel/backend/simulate"
	"github.com/inkwell-notebook/inkwell/kernel/backend/sqlrun"
)

// BuildDispatcher assembles the standard per-language tier chains from the
// runtime configuration. caller is the optional host engine connection; nil
// means the host tier is skipped and every language starts at its next tier.
// Every chain ends at the simulated backend, so dispatch always resolves.
func BuildDispatcher(cfg config.Config, caller hostengine.Caller, logger kernel.Logger) (*kernel.Dispatcher, error) {
	sim := simulate.New()

	var host kernel.Backend
	if caller != nil {
		host = hostengine.New(hostengine.Config{
			Caller:       caller,
			ProbeTimeout: cfg.Engine.ProbeTimeout,
			Timeout:      cfg.Engine.Timeout,
			Logger:       logger,
		})
	}

	py := pyproc.New(pyproc.Config{
		Interpreter: cfg.Python.Interpreter,
		Timeout:     cfg.Defaults.Timeout,
		Logger:      logger,
	})

	js := jsvm.New(jsvm.Config{
		Timeout: cfg.Defaults.Timeout,
		Logger:  logger,
	})

	var sqlDB kernel.Backend
	if cfg.SQL.DSN != "" {
		sqlDB = sqlrun.New(sqlrun.Config{
			DSN:     cfg.SQL.DSN,
			MaxRows: cfg.Table.MaxRows,
			Timeout: cfg.Defaults.Timeout,
			Logger:  logger,
		})
	}

	backends := map[kernel.Language]kernel.Backend{
		kernel.Python:     chainOf(logger, host, py, sim),
		kernel.SQL:        chainOf(logger, host, sqlDB, sim),
		kernel.Rust:       chainOf(logger, host, sim),
		kernel.R:          chainOf(logger, host, sim),
		kernel.Flux:       chainOf(logger, host, sim),
		kernel.JavaScript: chainOf(logger, js, sim),
		kernel.TypeScript: chainOf(logger, host, sim),
	}

	return kernel.NewDispatcher(kernel.Config{
		Backends: backends,
		Logger:   logger,
	})
}

// chainOf builds a chain from the non-nil tiers.
func chainOf(logger kernel.Logger, tiers ...kernel.Backend) *kernel.Chain {
	wired := make([]kernel.Backend, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			wired = append(wired, t)
		}
	}
	return kernel.NewChain(wired...).WithLogger(logger)
}
