package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GlebRadaev/liveticket/internal/config"
	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/handlers/payouts"
	"github.com/GlebRadaev/liveticket/internal/service"
	"github.com/stretchr/testify/suite"
	gomock "go.uber.org/mock/gomock"
)

type ApplicationSuite struct {
	suite.Suite
	app *Application
}

func TestApplication(t *testing.T) {
	suite.Run(t, &ApplicationSuite{})
}

func (s *ApplicationSuite) SetupTest() {
	s.app = New()
}

func (s *ApplicationSuite) TestWait() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.errCh = make(chan error)
	go func() {
		s.app.errCh <- fmt.Errorf("mock error")
	}()

	err := s.app.Wait(ctx, cancel)

	s.Require().Error(err)
	s.Contains(err.Error(), "mock error")
}

func (s *ApplicationSuite) TestWaitCleanShutdown() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.NoError(s.app.Wait(ctx, cancel))
}

func (s *ApplicationSuite) TestPayoutSchedulerDisabled() {
	s.app.cfg = &config.Config{}
	s.NoError(s.app.startPayoutScheduler(context.Background()))
}

func (s *ApplicationSuite) TestPayoutSchedulerRejectsBadCron() {
	s.app.cfg = &config.Config{PayoutCron: "every day please"}
	s.Error(s.app.startPayoutScheduler(context.Background()))
}

func (s *ApplicationSuite) TestPayoutSchedulerStops() {
	s.app.cfg = &config.Config{PayoutCron: "0 3 * * *"}
	ctx, cancel := context.WithCancel(context.Background())

	s.Require().NoError(s.app.startPayoutScheduler(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		s.app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.Fail("scheduler did not stop")
	}
}

func (s *ApplicationSuite) TestRunPayouts() {
	ctrl := gomock.NewController(s.T())
	payoutService := payouts.NewMockService(ctrl)
	s.app.srv = &service.Services{PayoutService: payoutService}
	now := time.Date(2026, 10, 22, 3, 0, 0, 0, time.UTC)

	payoutService.EXPECT().Run(gomock.Any(), now).Return(&domain.PayoutReport{
		Outcomes: []domain.PayoutOutcome{{EventID: "e1", Outcome: domain.PayoutOutcomePaid}},
	}, nil)
	s.app.runPayouts(context.Background(), now)

	payoutService.EXPECT().Run(gomock.Any(), now).Return(nil, errors.New("db error"))
	s.app.runPayouts(context.Background(), now)
}

func (s *ApplicationSuite) TestNewPublisherWithoutBrokers() {
	p, err := s.app.newPublisher(&config.Config{})
	s.NoError(err)
	s.NotNil(p)
	s.Empty(s.app.closers)
}

func (s *ApplicationSuite) TestNewLimiterWithoutRedis() {
	l, err := s.app.newLimiter(context.Background(), &config.Config{})
	s.NoError(err)
	s.Nil(l)
}
