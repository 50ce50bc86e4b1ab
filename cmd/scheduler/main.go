// Command scheduler runs the cron loop standalone: it loads persisted
// automations and fires their workflows on schedule, independent of the
// websocket-facing server process. Grounded on the teacher's
// cmd/scheduler/main.go, replacing its 30-second polling-loop
// placeholder with the real cron.Scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Narcis13/workscript-sub004/internal/bootstrap"
	"github.com/Narcis13/workscript-sub004/internal/config"
	"github.com/Narcis13/workscript-sub004/internal/cron"
	"github.com/Narcis13/workscript-sub004/internal/engine"
	"github.com/Narcis13/workscript-sub004/internal/logging"
	"github.com/Narcis13/workscript-sub004/internal/metrics"
	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/registry"
	"github.com/Narcis13/workscript-sub004/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	reg := registry.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	providers, resources, err := bootstrap.BuildProviders(ctx, cfg, logger, reg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build node providers")
	}
	if err := reg.Discover(providers); err != nil {
		logger.Fatal().Err(err).Msg("failed to register nodes")
	}

	collector := metrics.New(prometheus.DefaultRegisterer)
	eng := engine.New(reg, logger, engine.WithMetrics(collector))
	workflows := store.NewWorkflowStore()
	automations := store.NewAutomationStore()
	executions := store.NewExecutionStore()

	sched := cron.New(logger, cron.WithLocation(cfg.Cron.Location()), cron.WithMetrics(collector))

	for _, a := range automations.List() {
		automation := a // capture
		doc, err := workflows.Get(automation.WorkflowID)
		if err != nil {
			logger.Warn().Str("automation", automation.ID).Err(err).Msg("skipping automation with missing workflow")
			continue
		}
		err = sched.Schedule(cron.Automation{
			ID:       automation.ID,
			Schedule: automation.Schedule,
			Enabled:  func() bool { return automation.Enabled },
			Fire: func(fireCtx context.Context) error {
				executionID := time.Now().UTC().Format("20060102T150405.000000000Z")
				execCtx := &node.ExecutionContext{
					ExecutionID: executionID,
					WorkflowID:  doc.ID,
					Ctx:         fireCtx,
					Runtime:     noopRuntime{},
					StartedAt:   time.Now(),
				}
				res, runErr := eng.Run(execCtx, doc, node.ScopeServer, nil)
				record := &store.ExecutionRecord{
					ExecutionID: executionID,
					WorkflowID:  doc.ID,
					StartedAt:   execCtx.StartedAt,
					FinishedAt:  time.Now(),
					Result:      res,
				}
				if runErr != nil {
					record.Error = runErr.Error()
				}
				executions.Record(record)
				return runErr
			},
		})
		if err != nil {
			logger.Error().Str("automation", automation.ID).Err(err).Msg("failed to schedule automation")
		}
	}

	sched.Start()
	logger.Info().Msg("scheduler started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down scheduler")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = sched.Shutdown(shutdownCtx)
	_ = resources.Redis.Close()
	_ = resources.Asynq.Close()
}

type noopRuntime struct{}

func (noopRuntime) Emit(kind string, payload any) {}
func (noopRuntime) Pause(reason string)            {}
func (noopRuntime) Resume()                        {}
