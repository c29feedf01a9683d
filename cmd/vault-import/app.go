package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/vault-import/modules/vault/infrastructure/backup"
	"github.com/iota-uz/vault-import/modules/vault/infrastructure/persistence"
	"github.com/iota-uz/vault-import/modules/vault/infrastructure/preferences"
	"github.com/iota-uz/vault-import/modules/vault/services"
	"github.com/iota-uz/vault-import/pkg/configuration"
	"github.com/iota-uz/vault-import/pkg/logging"
	"github.com/iota-uz/vault-import/pkg/metrics"
)

// app holds the wired collaborators of one command invocation.
type app struct {
	conf    *configuration.Configuration
	store   *persistence.SQLStore
	svc     *services.ImportService
	metrics *metrics.Import
	logger  *logrus.Entry
	closers []func()
}

func openApp(ctx context.Context) (*app, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("load configuration: %w", err))
	}
	a := &app{
		conf:    conf,
		metrics: metrics.UseImport(),
		logger:  logrus.NewEntry(conf.Logger()),
	}
	a.closers = append(a.closers, conf.Unload)

	if conf.OpenTelemetry.Enabled {
		a.closers = append(a.closers, logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL))
		a.logger.WithField("endpoint", conf.OpenTelemetry.TempoURL).Info("OpenTelemetry tracing enabled")
	}

	st, closeStore, err := persistence.Open(ctx, conf.Database)
	if err != nil {
		a.close()
		return nil, withCode(exitDB, err)
	}
	a.store = st
	a.closers = append(a.closers, closeStore)

	prefs, closePrefs, err := preferences.Open(ctx, conf.Preferences)
	if err != nil {
		a.close()
		return nil, withCode(exitUsage, err)
	}
	a.closers = append(a.closers, closePrefs)

	blobs, err := backup.OpenBlobStore(ctx, conf.Backup)
	if err != nil {
		a.close()
		return nil, withCode(exitUsage, err)
	}

	a.svc = services.NewImportService(st, backup.NewService(st, blobs, conf.Backup.Prefix), prefs,
		services.WithImportOptions(conf.Import),
		services.WithMetrics(a.metrics),
		services.WithLogger(a.logger),
	)
	return a, nil
}

// close runs the closers in reverse order and flushes the metrics textfile.
func (a *app) close() {
	if a.conf != nil && a.conf.Prometheus.Enabled {
		if err := a.metrics.WriteTextfile(a.conf.Prometheus.TextfilePath); err != nil {
			a.logger.WithError(err).Warn("failed to write metrics textfile")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
