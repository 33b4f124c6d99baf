// Command vkteams-scheduler runs the scheduled-task dispatcher as a daemon,
// with run/status/stop subcommands that talk to the PID file and stop
// sentinel the running daemon watches for.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
	"github.com/vkteams-go/bot/daemon"
	"github.com/vkteams-go/bot/internal/config"
	"github.com/vkteams-go/bot/observe"
	"github.com/vkteams-go/bot/scheduler"
)

// rateLimitOption translates the TOML/env rate-limit settings into a Bot
// construction option.
func rateLimitOption(cfg config.Config) vkteamsbot.Option {
	rl := cfg.RateLimit
	return vkteamsbot.WithRateLimit(vkteamsbot.RateLimitConfig{
		Limit:         rl.RequestsPerWindow,
		Window:        time.Duration(rl.WindowSeconds) * time.Second,
		RetryDelay:    time.Duration(rl.RetryDelayMs) * time.Millisecond,
		RetryAttempts: rl.RetryAttempts,
	})
}

func newLogger(dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: vkteams-scheduler <run|status|stop>")
		os.Exit(2)
	}
	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to vkteams-bot.toml")
	dev := fs.Bool("dev", false, "use a text log handler instead of JSON")
	fs.Parse(os.Args[2:])

	logger := newLogger(*dev)
	cfg := config.Load(*configPath)

	var err error
	switch cmd {
	case "run":
		err = runDaemon(cfg, logger)
	case "status":
		err = printStatus()
	case "stop":
		err = stopDaemon()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("vkteams-scheduler exited", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func runDaemon(cfg config.Config, logger *slog.Logger) error {
	pidPath := daemon.DefaultPIDPath()
	existing, err := daemon.Read(pidPath)
	if err != nil {
		return err
	}
	switch existing.Status {
	case daemon.StatusRunning:
		return fmt.Errorf("scheduler already running (pid %d)", existing.PID)
	case daemon.StatusStale:
		logger.Warn("overwriting stale PID file", "pid", existing.PID)
	}

	pidFile, err := daemon.Write(pidPath)
	if err != nil {
		return err
	}
	defer pidFile.Remove()

	bot, err := vkteamsbot.NewFromEnv(rateLimitOption(cfg))
	if err != nil {
		return err
	}

	storePath := cfg.Scheduler.StorePath
	if storePath == "" {
		storePath = scheduler.DefaultStorePath()
	}
	store, err := scheduler.NewStore(storePath)
	if err != nil {
		return err
	}

	var dispatcher scheduler.Dispatcher = bot
	if cfg.Observe.Enabled {
		inst, shutdown, err := observe.Init(context.Background(), cfg.Observe.ServiceName)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
		dispatcher = observe.WrapDispatcher(bot, inst)
	}

	sched := scheduler.New(store, dispatcher, logger)

	logger.Info("vkteams-scheduler starting", "pid", pidFile.PID, "store", storePath)
	return vkteamsbot.RunWithSignal(func(ctx context.Context) error {
		stopped := daemon.WatchForStop(ctx, pidFile.PID, time.Second)
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			select {
			case <-stopped:
				cancel()
			case <-runCtx.Done():
			}
		}()

		err := sched.Run(runCtx)
		if runCtx.Err() != nil {
			return nil
		}
		return err
	})
}

func printStatus() error {
	info, err := daemon.Read(daemon.DefaultPIDPath())
	if err != nil {
		return err
	}
	fmt.Printf("status: %s\n", info.Status)
	if info.Status == daemon.StatusRunning {
		fmt.Printf("pid: %d\n", info.PID)
		fmt.Printf("uptime: %s\n", daemon.FormatUptime(info.Uptime))
		if mb, ok := daemon.RSS(info.PID); ok {
			fmt.Printf("memory: %d MB\n", mb)
		}
	}
	return nil
}

func stopDaemon() error {
	info, err := daemon.Read(daemon.DefaultPIDPath())
	if err != nil {
		return err
	}
	if info.Status != daemon.StatusRunning {
		return fmt.Errorf("scheduler is not running (status: %s)", info.Status)
	}
	return daemon.RequestStop(info.PID)
}
