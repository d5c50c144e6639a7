package metrics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fnscope/infra/packages/dashboard-api/internal/timerange"
)

type Overview struct {
	Throughput    []ThroughputPoint `json:"throughput"`
	FailureRate   FailureRate       `json:"failureRate"`
	ExecutionTime ExecutionTime     `json:"executionTime"`
}

// Overview runs the three chart queries concurrently for one range.
func (s *Service) Overview(ctx context.Context, r timerange.Range) (Overview, error) {
	var out Overview

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		out.Throughput, err = s.Throughput(ctx, r)

		return err
	})

	g.Go(func() error {
		var err error
		out.FailureRate, err = s.FailureRate(ctx, r)

		return err
	})

	g.Go(func() error {
		var err error
		out.ExecutionTime, err = s.ExecutionTime(ctx, r)

		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	return out, nil
}
