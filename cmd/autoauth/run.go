package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"autoauth/internal/config"
	"autoauth/internal/logs"
	"autoauth/internal/netaddr"
	"autoauth/internal/portal"
	"autoauth/internal/probe"
	"autoauth/internal/scheduler"
	"autoauth/internal/settings"
	"autoauth/internal/web"
	"autoauth/pkg/models"
	"autoauth/pkg/utils"
)

var bootMode bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the login scheduler and the status server",
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().BoolVar(&bootMode, "boot", false, "started at boot: honor autostart and wait bootdelay first")
}

// fanout delivers each status event to several sinks
type fanout []scheduler.StatusSink

func (f fanout) Publish(st models.Status) {
	for _, s := range f {
		s.Publish(st)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	store, err := settings.NewStore(configFile)
	if err != nil {
		return err
	}
	cfg := store.Current()

	undo, err := setupLogging(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer undo()

	zap.S().Infof("%s: Build %s, Time %s", repoName, sha1ver, buildTime)
	zap.S().Infof("Settings from %s", store.Path())

	sink := logs.NewSink(cfg.LogDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if bootMode && !bootGate(ctx, cfg, sink) {
		return nil
	}

	// Start watching for settings changes
	if err := store.Start(); err != nil {
		zap.S().Warnf("Settings will not reload: %v", err)
	}
	defer store.Stop()

	selector := netaddr.NewSelector(nil)
	prober := probe.New(cfg.ProbeURL, cfg.ProbeTimeout)

	webServer := web.NewServer(cfg.HTTPListen, cfg.ProbeQPS, web.Deps{
		Settings:  store,
		Addresses: selector,
		Prober:    prober,
		Logs:      sink,
		PortalURL: cfg.PortalURL,
	})
	go func() {
		utils.CheckWarn(webServer.Start(), "HTTP server failed")
	}()

	sched := scheduler.New(scheduler.Deps{
		Settings:  store,
		Prober:    prober,
		Portal:    portal.NewClient(cfg.PortalTimeout),
		Addresses: selector,
		Status:    fanout{webServer, statusLogger{}},
		Log:       sink,
	}, cfg.PortalURL, cfg.Interval)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	zap.S().Infof("Shutting down...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return utils.WrapError(webServer.Shutdown(shutdownCtx), "HTTP shutdown")
}

// bootGate holds a boot-time start until the boot delay has passed. It
// reports false when autostart is disabled or ctx ends first.
func bootGate(ctx context.Context, cfg *config.Config, sink scheduler.LogSink) bool {
	if !cfg.AutoStart {
		sink.Append("开机自启: 已禁用")
		zap.S().Infof("Autostart disabled, exiting")
		return false
	}

	zap.S().Infof("Boot start, waiting %s", cfg.BootDelay)
	timer := time.NewTimer(cfg.BootDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return false
	}
	sink.Append("开机自启: 延迟启动服务成功")
	return true
}

// statusLogger mirrors status events into the process log
type statusLogger struct{}

func (statusLogger) Publish(st models.Status) {
	if st.Result != nil && st.Result.Kind == models.ResultError {
		zap.S().Warnf("Cycle %d: %s", st.Cycle, st.Result.Message)
		return
	}
	zap.S().Infof("Status: network=%s running=%v summary=%q", st.Network, st.Running, st.LastSummary)
}
