package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackcelestial/sports-bridge/cert"
	"github.com/hackcelestial/sports-bridge/constants"
	"github.com/hackcelestial/sports-bridge/initializer"
	"github.com/hackcelestial/sports-bridge/invitations"
	logger "github.com/hackcelestial/sports-bridge/log"
)

var log = logger.Get()
var mainLogger = log.WithField("prefix", constants.MainLogTag)

var (
	confFile       string
	retentionHours int
	seedOnStart    bool
)

const shutdownTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   constants.ServiceName,
	Short: "Sports Bridge connects athletes, coaches and sponsors",
	Long: `Sports Bridge serves the REST API, the dashboard and the operator API.

Run without a sub command to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load seed data (sports and demo users) into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBridge(cmd.Context(), seedStore)
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a backup of sports and users to the seed source",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBridge(cmd.Context(), backupStore)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-invitations",
	Short: "Delete answered invitations older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBridge(cmd.Context(), func(ctx context.Context, b *initializer.Bridge) error {
			retention := b.Retention()
			if retentionHours > 0 {
				retention = time.Duration(retentionHours) * time.Hour
			}
			n, err := b.Invitations.Cleanup(ctx, time.Now().UTC(), retention)
			if err != nil {
				return err
			}
			mainLogger.Info("Deleted ", n, " answered invitations")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&confFile, "conf", constants.DefaultConfig, "Path to the configuration file")
	serveCmd.Flags().BoolVar(&seedOnStart, "seed", false, "Load seed data before serving (always on in dev mode)")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	cleanupCmd.Flags().IntVar(&retentionHours, "retention", 0, "Retention in hours (default from configuration)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// startBridge loads the configuration and wires every service.
func startBridge(ctx context.Context) (*initializer.Bridge, error) {
	conf, err := loadConfig(confFile)
	if err != nil {
		return nil, err
	}

	b := &initializer.Bridge{Conf: conf, Logger: log}
	if err := b.Start(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func withBridge(ctx context.Context, fn func(context.Context, *initializer.Bridge) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := startBridge(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := startBridge(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if seedOnStart || b.Conf.DevMode {
		if err := seedStore(ctx, b); err != nil {
			mainLogger.Warning("Seeding failed: ", err)
		}
	}

	go invitations.NewJanitor(b.Invitations, b.Retention()).Run(ctx)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(b.Conf.Port),
		Handler:      newRouter(newServer(b)),
		ReadTimeout:  time.Duration(b.Conf.HttpServerOptions.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(b.Conf.HttpServerOptions.WriteTimeoutSeconds) * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		if b.Conf.HttpServerOptions.UseSSL {
			certs, err := cert.NewManager(b.Conf.HttpServerOptions.CertFile, b.Conf.HttpServerOptions.KeyFile)
			if err != nil {
				errs <- err
				return
			}
			srv.TLSConfig = certs.TLSConfig()
			mainLogger.Info("--> Using SSL (https) on port ", b.Conf.Port)
			errs <- srv.ListenAndServeTLS("", "")
			return
		}
		mainLogger.Info("--> Standard listener (http) on port ", b.Conf.Port)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	mainLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
