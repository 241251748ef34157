package health

import (
	"context"
	"errors"
	"fmt"
)

// StoreChecker reports readiness of the player store. ping is typically
// pgxpool.Pool.Ping; a nil ping (in-memory store) always passes.
func StoreChecker(ping func(ctx context.Context) error) Checker {
	return Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			if ping == nil {
				return nil
			}
			if err := ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
	}
}

// CatalogChecker fails while the game catalog is empty, so the server
// does not advertise readiness before stories are loaded.
func CatalogChecker(size func() int) Checker {
	return Checker{
		Name: "catalog",
		Check: func(context.Context) error {
			if size() == 0 {
				return errors.New("no games loaded")
			}
			return nil
		},
	}
}
