package main

import (
	"context"
	"fmt"
	"net"

	"github.com/desertthunder/lrcx/internal/server"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.services()
	if err != nil {
		return err
	}

	logger := r.logger
	if path := cmd.String("log-file"); path != "" {
		fileLogger, f, err := shared.NewFileLogger(path)
		if err != nil {
			return err
		}
		defer f.Close()
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		logger = fileLogger
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.conf().Server.Addr()
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(logger), server.RequestID(), server.Logging(logger))
	router.Handler(server.NewLyricsHandler(server.LyricsHandlerOpts{
		Lyrics:   r.lyrics,
		History:  r.history,
		Resolver: engine,
		Timeout:  2 * r.conf().Provider.Timeout(),
		Logger:   logger,
	}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	url := fmt.Sprintf("http://%s/health", ln.Addr())
	r.writePlain("%s Serving lyrics on %s\n", r.palette.OK("✓"), r.palette.Title(ln.Addr().String()))
	r.writePlain("%s\n", r.palette.Help("Press Ctrl+C to stop"))

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "url", url, "error", err)
		}
	}

	return server.New(addr, router, logger).Serve(ctx, ln)
}
