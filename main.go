package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atomledger/atomengine/daemon"
	"github.com/atomledger/atomengine/services/httpimpl"
	"github.com/atomledger/atomengine/settings"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/ordishs/gocore"
	"golang.org/x/sync/errgroup"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "atomengine"

// Version & commit strings injected at build with -ldflags -X...
var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("usage: atomengine [options]")
		fmt.Println("")
		fmt.Println("configuration is read from settings.conf and settings_local.conf, see settings/settings.go")
		fmt.Println("")
		flag.PrintDefaults()

		return
	}

	tSettings := settings.NewSettings()
	logger := ulogger.New(progname, ulogger.WithLevel(tSettings.LogLevel), ulogger.WithLoggerType(tSettings.LoggerType))

	stats := gocore.Config().Stats()
	logger.Infof("STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	d := daemon.New(logger, tSettings)
	if err := d.Start(ctx); err != nil {
		logger.Fatalf("failed to start: %v", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	var server *httpimpl.HTTP

	if httpAddress, ok := gocore.Config().Get("httpAddress"); ok && httpAddress != "" {
		server = httpimpl.New(logger.New("http"), d.Health)

		g.Go(func() error {
			return server.Start(httpAddress)
		})
	}

	select {
	case <-interrupt:
	case <-gCtx.Done():
	}

	logger.Infof("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if server != nil {
		_ = server.Stop(shutdownCtx)
	}

	if err := d.Stop(shutdownCtx); err != nil {
		logger.Errorf("failed to stop cleanly: %v", err)
	}

	cancel()

	if err := g.Wait(); err != nil {
		logger.Errorf("server returning an error: %v", err)
		os.Exit(2)
	}
}
