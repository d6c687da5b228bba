package vote

import (
	"context"
	"time"

	"github.com/tbordasch/befriends/internal/bet"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/metrics"
)

// Sweeper periodically settles bets the request path missed: deadlines
// that passed with nobody online, and settlements a crash interrupted.
type Sweeper struct {
	service  Service
	betRepo  bet.Repository
	voteRepo Repository
	interval time.Duration
}

func NewSweeper(service Service, betRepo bet.Repository, voteRepo Repository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		service:  service,
		betRepo:  betRepo,
		voteRepo: voteRepo,
		interval: interval,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	logger.Infof("Settlement sweeper started, interval %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Settlement sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	metrics.RecordSweepRun()

	candidates := make(map[int]bool)

	pastDeadline, err := s.betRepo.ListBetsPastDeadline(ctx)
	if err != nil {
		logger.Errorf("Sweep: failed to list bets past deadline: %v", err)
	} else {
		for _, b := range pastDeadline {
			candidates[b.ID] = true
		}
	}

	ready, err := s.voteRepo.ListSettleCandidates(ctx)
	if err != nil {
		logger.Errorf("Sweep: failed to list settle candidates: %v", err)
	} else {
		for _, id := range ready {
			candidates[id] = true
		}
	}

	for betID := range candidates {
		settled, err := s.service.TrySettle(ctx, betID)
		if err != nil {
			logger.Errorf("Sweep: settlement of bet %d failed: %v", betID, err)
			continue
		}
		if settled {
			logger.Infof("Sweep: settled bet %d", betID)
		}
	}
}
