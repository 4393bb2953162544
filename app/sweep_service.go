package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"gobias/domain/core"
	"gobias/domain/table"
)

// GroupPair is one exposed/unexposed comparison in a sweep.
type GroupPair struct {
	Exposed   string `json:"exposed" yaml:"exposed"`
	Unexposed string `json:"unexposed" yaml:"unexposed"`
}

// SweepRequest fans a base request out over several group pairs. Each
// pair is an independent two-group analysis; this is not a multi-group
// comparison.
type SweepRequest struct {
	Base  Request     `json:"base" yaml:"base"`
	Pairs []GroupPair `json:"pairs" yaml:"pairs"`
}

// SweepResult collects the per-pair reports in request order.
type SweepResult struct {
	SweepID   core.RunID `json:"sweep_id"`
	Reports   []*Report  `json:"reports"`
	RuntimeMs int64      `json:"runtime_ms"`
}

// SweepService runs independent analyses concurrently. Safe because
// every estimator call is a pure function of its inputs.
type SweepService struct {
	analysis *AnalysisService
}

// NewSweepService creates a sweep service.
func NewSweepService(analysis *AnalysisService) *SweepService {
	return &SweepService{analysis: analysis}
}

// Run executes one analysis per pair against the same source table and
// fails the whole sweep on the first error.
func (s *SweepService) Run(ctx context.Context, frame *table.Frame, req SweepRequest) (*SweepResult, error) {
	if len(req.Pairs) == 0 {
		return nil, core.NewInvalidOptionError("pairs", "empty")
	}

	start := time.Now()
	reports := make([]*Report, len(req.Pairs))

	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range req.Pairs {
		i := i
		sub := req.Base
		sub.Exposed = pair.Exposed
		sub.Unexposed = pair.Unexposed
		g.Go(func() error {
			rep, err := s.analysis.Run(gctx, frame, sub)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SweepResult{
		SweepID:   core.NewRunID(),
		Reports:   reports,
		RuntimeMs: time.Since(start).Milliseconds(),
	}, nil
}
