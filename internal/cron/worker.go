package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kdarko/ecgbill/internal/alerting"
	"github.com/kdarko/ecgbill/internal/metrics"
	"github.com/kdarko/ecgbill/internal/storage"
	"github.com/kdarko/ecgbill/internal/tariff"
)

const (
	jobName = "refresh_gazette"
	lockKey = int64(42)
)

// Run starts the gazette refresh worker. On each run it re-parses the
// published tariff gazette PDF and stores the parsed schedule as the
// baseline snapshot for the given policy revision. A PostgreSQL advisory
// lock keeps the job single-flight across worker instances.
func Run(ctx context.Context, driver, dsn, gazettePath, policyKey string) error {
	if driver == "" {
		driver = "postgrespool"
	}
	if driver != "postgrespool" {
		return fmt.Errorf("cron worker requires ECGBILL_DB_DRIVER=postgrespool (got %q)", driver)
	}
	if policyKey == "" {
		policyKey = tariff.DefaultPolicyKey
	}
	if _, ok := tariff.GetPolicy(policyKey); !ok {
		return fmt.Errorf("unknown tariff policy %q", policyKey)
	}

	st, err := storage.Open(ctx, storage.Config{Driver: driver, DSN: dsn})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	pg, ok := st.(*storage.PostgresPoolStorage)
	if !ok {
		return fmt.Errorf("storage driver %q is not PostgresPoolStorage", driver)
	}

	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())

	// Interval from env, overridable at runtime through the settings table.
	// Accepts integer seconds or a standard cron expression.
	intervalSetting := "3600"
	if raw := os.Getenv("ECGBILL_CRON_INTERVAL_SECONDS"); raw != "" {
		intervalSetting = raw
	}
	if val, err := st.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" {
		intervalSetting = val
	}

	getNextRun := func(setting string, lastRun time.Time) time.Time {
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return lastRun.Add(time.Duration(v) * time.Second)
		}
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(lastRun)
		}
		return lastRun.Add(time.Hour)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	nextRun := time.Now()
	consecutiveFailures := 0

	log.Printf("cron worker starting, initial setting=%q gazette=%s policy=%s", intervalSetting, gazettePath, policyKey)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := st.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" && val != intervalSetting {
				log.Printf("cron: interval updated from %q to %q", intervalSetting, val)
				intervalSetting = val
				nextRun = getNextRun(intervalSetting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			locked, err := pg.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("cron: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}
			if !locked {
				log.Printf("cron: advisory lock held by another worker, skipping run")
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}

			runErr := func() error {
				defer func() {
					if _, err := pg.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("cron: release advisory lock failed: %v", err)
					}
				}()
				return refreshGazette(ctx, st, gazettePath, policyKey)
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)
			pg.ReportPoolMetrics()

			dur := time.Since(started)
			errMsg := ""
			if runErr != nil {
				errMsg = runErr.Error()
				consecutiveFailures++
			} else {
				consecutiveFailures = 0
			}
			if err := pg.UpdateScheduledJob(ctx, jobName, started, dur, runErr == nil, errMsg); err != nil {
				log.Printf("cron: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("cron: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
				if err := alerter.SendJobAlert(ctx, alerting.JobAlert{
					JobName:             jobName,
					Error:               errMsg,
					ConsecutiveFailures: consecutiveFailures,
					Duration:            dur,
					Timestamp:           started,
				}); err != nil {
					log.Printf("cron: send job alert failed: %v", err)
				}
			} else {
				log.Printf("cron: job %s completed successfully (duration=%s)", jobName, dur)
			}

			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}

// refreshGazette parses the gazette PDF and stores its schedule as the
// baseline snapshot for the policy. Service instances pick it up on their
// next start; operator edits made after this snapshot win until then.
func refreshGazette(ctx context.Context, st storage.Storage, gazettePath, policyKey string) error {
	g, err := tariff.ParseGazetteFromPDF(gazettePath)
	if err != nil {
		return fmt.Errorf("parse gazette %s: %w", gazettePath, err)
	}

	payload, err := json.Marshal(g.Schedule())
	if err != nil {
		return fmt.Errorf("marshal gazette schedule: %w", err)
	}

	if err := st.SaveScheduleSnapshot(ctx, storage.ScheduleSnapshot{
		Policy:  policyKey,
		Payload: payload,
		SavedAt: time.Now(),
		SavedBy: "gazette-worker",
	}); err != nil {
		return fmt.Errorf("save gazette snapshot: %w", err)
	}

	log.Printf("cron: gazette snapshot saved for policy %s (effective %s)", policyKey, g.EffectiveDate)
	return nil
}
