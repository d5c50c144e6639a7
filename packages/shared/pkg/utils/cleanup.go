package utils

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

type cleanup struct {
	name string
	fn   func(ctx context.Context) error
}

// Cleaner runs registered cleanups in reverse order of registration. Run only has an effect once.
type Cleaner struct {
	mu       sync.Mutex
	cleanups []cleanup
	done     bool
}

func (c *Cleaner) Add(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanups = append(c.cleanups, cleanup{name: name, fn: fn})
}

func (c *Cleaner) Run(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return nil
	}
	c.done = true

	var errs []error
	for _, cl := range slices.Backward(c.cleanups) {
		if err := cl.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cl.name, err))
		}
	}

	return errors.Join(errs...)
}
