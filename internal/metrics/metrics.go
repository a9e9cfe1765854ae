package metrics

import (
	"context"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/logger"
)

type service struct {
	repo   Repository
	gauges *Gauges
	cfg    Config
}

type noopRepository struct{}

// NewService returns a collector feeding gauges, which may be nil, and the
// history database when enabled.
func NewService(cfg Config, gauges *Gauges, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	s := &service{
		repo:   noopRepository{},
		gauges: gauges,
		cfg:    cfg,
	}

	if !cfg.Enabled {
		log.Debug().Msg("History disabled, using no-op repository")
		return s, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}
	s.repo = repo

	log.Debug().
		Str("db_path", cfg.DBPath).
		Msg("History service initialized successfully")

	return s, nil
}

func (s *service) Record(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidMetrics)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	if s.gauges != nil {
		s.gauges.Observe(snapshot)
	}
	if err := s.repo.Record(snapshot); err != nil {
		return errFactory.Wrap(ErrMetricsCollection, err)
	}

	return nil
}

func (s *service) Recent(limit int) ([]Snapshot, error) {
	return s.repo.Recent(limit)
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func (noopRepository) Record(*Snapshot) error         { return nil }
func (noopRepository) Recent(int) ([]Snapshot, error) { return nil, nil }
func (noopRepository) Close() error                   { return nil }
