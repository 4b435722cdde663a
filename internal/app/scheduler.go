package app

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/GlebRadaev/liveticket/internal/domain"
)

// startPayoutScheduler runs the payout job in-process when PAYOUT_CRON is set.
// Without it the job is triggered through the cron endpoint only.
func (a *Application) startPayoutScheduler(ctx context.Context) error {
	if a.cfg.PayoutCron == "" {
		return nil
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.CronJob(a.cfg.PayoutCron, false),
		gocron.NewTask(func() {
			a.runPayouts(ctx, time.Now())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("daily-payouts"),
	)
	if err != nil {
		sched.Shutdown()
		return err
	}
	sched.Start()
	zap.L().Info("payout scheduler started", zap.String("cron", a.cfg.PayoutCron))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			zap.L().Error("can't stop payout scheduler", zap.Error(err))
		}
	}()
	return nil
}

func (a *Application) runPayouts(ctx context.Context, now time.Time) {
	report, err := a.srv.PayoutService.Run(ctx, now)
	if err != nil {
		zap.L().Error("scheduled payout run failed", zap.Error(err))
		return
	}
	zap.L().Info("scheduled payout run finished",
		zap.Time("settlement_date", report.SettlementDate),
		zap.Int("events", len(report.Outcomes)),
		zap.Int("paid", report.Count(domain.PayoutOutcomePaid)),
	)
}
