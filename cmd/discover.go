package main

import (
	"context"
	"net/http"
	"strings"
	"subhunt/internal/discovery"
	"subhunt/internal/output"
	"subhunt/pkg/ctlog/crtsh"
	"subhunt/pkg/domain"
	"subhunt/pkg/httplog"
	"subhunt/pkg/logger"
	"subhunt/pkg/metrics"
	"subhunt/pkg/serrors"
	"subhunt/pkg/storage"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// outcomeOf labels a discovery result for the discoveries counter.
func outcomeOf(err error, found int) string {
	switch serrors.KindOf(err) {
	case nil:
		if found == 0 {
			return "empty"
		}

		return "success"
	case serrors.ErrInvalidDomain:
		return "invalid_domain"
	case serrors.ErrUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "error"
	}
}

// writeMetrics dumps the registry to the configured textfile and stops the
// meter provider.
func (a *app) writeMetrics(ctx context.Context, m *metrics.Metrics) {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			logger.Warn(ctx, "could not write metrics", zap.String("path", path), zap.Error(err))
		} else {
			logger.Debug(ctx, "wrote metrics", zap.String("path", path))
		}
	}

	if err := m.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "could not shutdown metrics", zap.Error(err))
	}
}

// comparePrevious logs how many names of set are missing from the list
// currently stored at path. Nothing is logged when there is no previous list.
func comparePrevious(ctx context.Context, path string, set domain.SubdomainSet) {
	ok, err := output.Exists(path)
	if err != nil {
		logger.Debug(ctx, "could not check previous output", zap.String("path", path), zap.Error(err))

		return
	}
	if !ok {
		return
	}

	previous, err := output.Read(path)
	if err != nil {
		logger.Debug(ctx, "could not read previous output", zap.String("path", path), zap.Error(err))

		return
	}

	added := 0
	for name := range set {
		if !previous.Contains(name) {
			added++
		}
	}
	logger.Info(ctx, "compared with previous output",
		zap.Int("previous", previous.Len()),
		zap.Int("new", added))
}

// saveOutput writes set to path after comparing it with the previous content.
func saveOutput(ctx context.Context, path string, set domain.SubdomainSet) error {
	comparePrevious(ctx, path, set)

	if err := output.Write(path, set); err != nil {
		return err //nolint: wrapcheck
	}
	logger.Info(ctx, "saved results", zap.String("path", path), zap.Int("count", set.Len()))

	return nil
}

// discover runs one discovery for the domain flag and reports its result.
func (a *app) discover(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	mode := domain.ScanModeFor(a.flags.complete)
	start := time.Now()

	logger.Info(ctx, "subhunt started",
		zap.String("domain", a.flags.domain),
		zap.String("mode", string(mode)))
	defer func() {
		logger.Info(ctx, "subhunt finished",
			zap.Bool("success", err == nil),
			zap.Duration("elapsed", time.Since(start)))
	}()

	m, err := metrics.New()
	if err != nil {
		return a.fail(ctx, "could not create metrics", err)
	}
	defer a.writeMetrics(ctx, m)

	client, err := crtsh.New(&http.Client{
		Timeout:   a.cfg.CrtSh.Timeout,
		Transport: httplog.New(http.DefaultTransport),
	}, crtsh.Options{
		BaseURL:       a.cfg.CrtSh.BaseURL,
		UserAgent:     a.cfg.CrtSh.UserAgent,
		MeterProvider: m.MeterProvider,
	})
	if err != nil {
		return a.fail(ctx, "could not create crt.sh client", err)
	}

	var strg storage.Storage
	if a.cfg.Database.Enabled {
		pgsql, closePgsql, err := newPostgres(ctx, a.cfg)
		if err != nil {
			return a.fail(ctx, "could not connect to the inventory database", err)
		}
		defer closePgsql()
		strg = pgsql
	}

	d := discovery.New(client, strg)

	set, err := d.Discover(ctx, a.flags.domain, mode)
	m.Discoveries.WithLabelValues(outcomeOf(err, set.Len())).Inc()
	if err != nil {
		return a.fail(ctx, "discovery failed", err)
	}
	m.SubdomainsFound.WithLabelValues(strings.ToLower(a.flags.domain), string(mode)).Set(float64(set.Len()))

	names := set.Sorted()
	for _, name := range names {
		logger.Info(ctx, "found", zap.String("subdomain", name))
	}
	if len(names) == 0 {
		logger.Warn(ctx, "no subdomains found", zap.String("domain", a.flags.domain))
	} else {
		logger.Info(ctx, "discovered subdomains", zap.Int("count", len(names)))
	}

	if a.flags.output != "" {
		if err := saveOutput(ctx, a.flags.output, set); err != nil {
			return a.fail(ctx, "could not save results", err)
		}
	}

	if strg != nil {
		added, err := d.Record(ctx, a.flags.domain, mode, set)
		if err != nil {
			return a.fail(ctx, "could not record discovery", err)
		}
		for _, name := range added {
			logger.Info(ctx, "new subdomain", zap.String("subdomain", name))
		}
		logger.Info(ctx, "recorded discovery", zap.Int("new", len(added)))
	}

	return nil
}
