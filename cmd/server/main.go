// Warden collects vulnerability findings from security sensors and serves them
// grouped into likely duplicates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/health"
	"github.com/linnemanlabs/go-core/httpmw"
	"github.com/linnemanlabs/go-core/httpserver"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/metrics"
	"github.com/linnemanlabs/go-core/opshttp"
	"github.com/linnemanlabs/go-core/otelx"
	"github.com/linnemanlabs/go-core/prof"
	v "github.com/linnemanlabs/go-core/version"

	vc "github.com/linnemanlabs/warden/internal/cfg"
	"github.com/linnemanlabs/warden/internal/grouping"
	"github.com/linnemanlabs/warden/internal/vuln"
	"github.com/linnemanlabs/warden/internal/vulnapi"
)

const (
	appName   = "warden"
	component = "server"
	envPrefix = "WARDEN_"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

// settings gathers the flag-backed config of warden and every go-core
// package it starts.
type settings struct {
	app    vc.Config
	http   httpserver.Config
	httpmw httpmw.Config
	log    log.Config
	ops    opshttp.Config
	prof   prof.Config
	trace  otelx.Config
}

func (s *settings) register(fs *flag.FlagSet) {
	for _, r := range []cfg.Registerable{&s.app, &s.http, &s.httpmw, &s.log, &s.ops, &s.prof, &s.trace} {
		r.RegisterFlags(fs)
	}
}

func (s *settings) validate() error {
	var errs []error
	for _, c := range []cfg.Validatable{&s.app, &s.http, &s.httpmw, &s.log, &s.ops, &s.prof, &s.trace} {
		errs = append(errs, c.Validate())
	}
	if s.app.APIPort == s.ops.Port {
		errs = append(errs, fmt.Errorf("http and admin ports must differ (both %d)", s.app.APIPort))
	}
	return errors.Join(errs...)
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v.AppName = appName
	v.Component = component
	vi := v.Get()

	var st settings
	st.register(flag.CommandLine)
	showVersion := flag.Bool("V", false, "Print version+build information and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s (%s) %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty)
		return nil
	}

	// explicit flags win over WARDEN_* variables
	cfg.FillFromEnv(flag.CommandLine, envPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err := st.validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := log.New(st.log.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()
	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "starting warden",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_id", vi.BuildId,
		"go_version", vi.GoVersion,
		"http_port", st.app.APIPort,
		"admin_port", st.ops.Port,
		"store", storeKind(st.app.DatabaseURL),
		"seed_file", st.app.SeedFile,
		"drain_seconds", st.app.DrainSeconds,
		"enable_tracing", st.trace.EnableTracing,
		"otlp_endpoint", st.trace.OTLPEndpoint,
		"enable_pyroscope", st.prof.EnablePyroscope,
		"trusted_proxy_hops", st.httpmw.TrustedProxyHops,
	)

	// Profiling first so the whole process lifetime is covered.
	profOpts := st.prof.ToOptions()
	profOpts.AppName = v.AppName
	profOpts.Tags = map[string]string{
		"app":       v.AppName,
		"component": v.Component,
		"version":   vi.Version,
		"commit":    vi.Commit,
	}
	stopProf, profErr := prof.Start(ctx, profOpts)
	if profErr != nil {
		L.Error(ctx, profErr, "pyroscope start failed", "pyro_server", st.prof.PyroServer)
	}

	traceOpts := st.trace.ToOptions()
	traceOpts.Service = v.AppName
	traceOpts.Component = v.Component
	traceOpts.Version = v.Version
	shutdownOtel, err := otelx.Init(ctx, traceOpts)
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, component, &vi)
	m.SetProfilingActive(profErr == nil && st.prof.EnablePyroscope)
	observeDBQueries(m.Registry())

	recordStore, closeStore, err := openStore(ctx, L, st.app.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeStore()

	groupingMetrics := grouping.NewMetrics(m.Registry())
	svc := vuln.NewService(recordStore, grouping.New(nil, groupingMetrics.Hooks()), L, vuln.NewMetrics(m.Registry()))

	// Seed before either listener reports ready.
	if err := importSeed(ctx, L, st.app.SeedFile, svc); err != nil {
		return err
	}

	// The gate fails readiness during drain so load balancers stop routing here.
	var gate health.ShutdownGate
	readiness := health.All(gate.Probe())
	liveness := health.Fixed(true, "")

	opsOpts := st.ops.ToOptions()
	opsOpts.Metrics = m.Handler()
	opsOpts.Health = liveness
	opsOpts.Readiness = readiness
	opsOpts.UseRecoverMW = true
	opsOpts.OnPanic = m.IncHttpPanic
	stopOps, err := opshttp.Start(ctx, L, opsOpts)
	if err != nil {
		return fmt.Errorf("start ops listener: %w", err)
	}

	api := vulnapi.New(L, svc, st.app.APIToken)
	h := apiHandler(L, m, st.httpmw, api, liveness, readiness)

	apiOpts, err := st.http.ToOptions()
	if err != nil {
		return fmt.Errorf("http options: %w", err)
	}
	stopAPI, err := httpserver.Start(ctx, fmt.Sprintf(":%d", st.app.APIPort), h, L, apiOpts)
	if err != nil {
		_ = stopOps(context.Background())
		return fmt.Errorf("start api listener: %w", err)
	}

	// Not running under systemd is normal; only log it.
	if err := notifySystemd(); err != nil {
		L.Warn(ctx, "systemd readiness not sent", "error", err)
	}

	<-ctx.Done()
	L.Info(context.Background(), "shutdown signal received")

	gate.Set("draining")
	drain(L, st.app.DrainSeconds)
	shutdown(L, st.app.ShutdownBudgetSeconds, []stopStep{
		{"api http server", stopAPI},
		{"ops http server", stopOps},
		{"otel", shutdownOtel},
	})
	if stopProf != nil {
		stopProf()
	}

	L.Info(context.Background(), "shutdown complete")
	return nil
}

func storeKind(databaseURL string) string {
	if databaseURL == "" {
		return "memory"
	}
	return "postgres"
}
