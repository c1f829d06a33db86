// Command filerelay runs the file-transfer signalling relay described in
// SPEC_FULL.md: a WebSocket server pairing senders and recipients and
// forwarding file metadata, chunks, and control frames between them.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	alog "github.com/anacrolix/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/dannyzb/filerelay/internal/httpapi"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

type args struct {
	Port            int     `arg:"env:PORT" default:"8080" help:"TCP port to listen on"`
	Env             string  `arg:"env:APP_ENV" default:"production" help:"deployment environment name, reported by /health"`
	AcceptRate      float64 `arg:"--accept-rate,env:ACCEPT_RATE" default:"50" help:"sustained upgrade accept rate, connections/sec"`
	AcceptBurst     int     `arg:"--accept-burst,env:ACCEPT_BURST" default:"100" help:"upgrade accept burst size"`
	ShutdownTimeout time.Duration `arg:"--shutdown-timeout" default:"10s" help:"grace period for in-flight connections on shutdown"`
}

func (args) Description() string {
	return "file-transfer signalling relay"
}

func main() {
	var a args
	arg.MustParse(&a)

	logger := alog.Default.WithNames("filerelay")

	if err := run(a, logger); err != nil {
		logger.WithDefaultLevel(alog.Error).Printf("%+v", err)
		os.Exit(1)
	}
}

func run(a args, logger alog.Logger) error {
	state := relaystate.New()
	srv := httpapi.NewServer(state, logger, a.Env, rate.Limit(a.AcceptRate), a.AcceptBurst)

	mux := http.NewServeMux()
	srv.Routes(mux)

	httpSrv := &http.Server{
		Addr:    ":" + strconv.Itoa(a.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithDefaultLevel(alog.Info).Printf("listening on %s (env=%s)", httpSrv.Addr, a.Env)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "listen and serve")
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.WithDefaultLevel(alog.Info).Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "graceful shutdown")
	}
	return <-errCh
}
