package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berfenger/ezlogger2mqtt/internal/config"
	"github.com/berfenger/ezlogger2mqtt/internal/core/actor"
	"github.com/berfenger/ezlogger2mqtt/internal/core/service"
	"github.com/berfenger/ezlogger2mqtt/internal/metrics"
	"github.com/berfenger/ezlogger2mqtt/internal/server"
	"github.com/berfenger/ezlogger2mqtt/internal/util/actorutil"
	"github.com/berfenger/ezlogger2mqtt/pkg/ezlogger"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:    "ezlogger2mqtt",
		Usage:   "Poll a GoodWe EZLogger and publish its telemetry",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
				Aliases: []string{"c"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the polling daemon",
				Action: serve,
			},
			{
				Name:   "read",
				Usage:  "Poll once, with retries, and print the corrected frame as JSON",
				Action: read,
			},
			{
				Name:   "dump",
				Usage:  "Fetch one raw response and print it annotated",
				Action: dump,
			},
			{
				Name:   "simulate",
				Usage:  "Answer EZLogger requests with a fixed frame",
				Action: simulate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func serve(c *cli.Context) error {

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()
	safePrintConfig(*cfg)

	m := metrics.New()

	ezloggerProv, err := ezloggerActorProvider(cfg, m, logger)
	if err != nil {
		return err
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, ezloggerProv, mqttActorProvider(cfg, logger),
			influxActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return err
	}

	server := server.NewServer(*cfg, ctx, pid, m.Handler())
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")

	ctx.StopFuture(pid).Wait()
	as.Shutdown()
	return nil
}

func read(c *cli.Context) error {

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	poller, err := newPoller(cfg, nil, logger)
	if err != nil {
		return err
	}

	retry := retryPolicy(cfg, logger)
	ctx, cancel := context.WithTimeout(c.Context, retry.Budget(cfg.EZLogger.Timeout()))
	defer cancel()

	frame, err := service.PollWithRetry(ctx, retry, poller)
	if err != nil {
		return cli.Exit(fmt.Sprintf("poll failed (%s): %s", ezlogger.ErrorKind(err), err), 1)
	}

	out, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

func dump(c *cli.Context) error {

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := ezlogger.NewClient(cfg.EZLogger.Host, cfg.EZLogger.Port, cfg.EZLogger.Timeout(), logger,
		ezlogger.DebugLoggerInstrumentation(logger))

	raw, err := client.Fetch(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("fetch failed (%s): %s", ezlogger.ErrorKind(err), err), 1)
	}
	fmt.Fprint(c.App.Writer, ezlogger.Dump(raw))
	return nil
}

func simulate(c *cli.Context) error {

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sim, err := ezlogger.NewSimulator(fmt.Sprintf(":%d", cfg.Simulator.Port), ezlogger.TestFrame(), logger)
	if err != nil {
		return err
	}
	slog.Info("Simulating EZLogger", "address", sim.Addr().String())

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sim.Close()
	}()

	return sim.Serve()
}

// setup loads the config and builds the zap logger at the configured level.
func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		slog.Error("config errors", "error", err)
		return nil, nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func safePrintConfig(cfg config.Config) {
	slog.Info("Using", "config", cfg.Redacted())
}
