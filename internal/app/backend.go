package app

import (
	"fmt"

	"github.com/five82/winloop/internal/config"
	"github.com/five82/winloop/internal/platform"
	"github.com/five82/winloop/internal/platform/headless"
	"github.com/five82/winloop/internal/platform/terminal"
	"github.com/five82/winloop/internal/platform/x11"
)

// candidates returns the backends to try, in order, for the configured name.
// auto prefers a desktop window and falls back to the terminal.
func candidates(cfg config.Config) ([]platform.Backend, error) {
	switch cfg.Backend {
	case "", "auto":
		return []platform.Backend{
			&x11.Backend{},
			&terminal.Backend{Theme: cfg.Theme},
		}, nil
	case x11.Name:
		return []platform.Backend{&x11.Backend{}}, nil
	case terminal.Name:
		return []platform.Backend{&terminal.Backend{Theme: cfg.Theme}}, nil
	case headless.Name:
		return []platform.Backend{&headless.Backend{}}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
