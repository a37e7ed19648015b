// Command tinyboard is the terminal board client for a tinyboard authority.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinyboard/internal/authority"
	"tinyboard/internal/board"
	"tinyboard/internal/buildinfo"
	"tinyboard/internal/controller"
	"tinyboard/internal/logging"
	"tinyboard/internal/rules"
	"tinyboard/internal/tui"
)

const defaultLogPath = "tinyboard.log"

type options struct {
	server  string
	elo     int
	think   time.Duration
	human   rules.Color
	timeout time.Duration
	logPath string
	debug   bool
	version bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("tinyboard", flag.ContinueOnError)
	fs.StringVar(&o.server, "server", envOr("TINYBOARD_SERVER", "http://127.0.0.1:5000"), "authority base URL")
	fs.IntVar(&o.elo, "elo", 1320, "opponent strength")
	fs.DurationVar(&o.think, "think", 100*time.Millisecond, "opponent think time")
	color := fs.String("color", "white", "your color (white|black)")
	fs.DurationVar(&o.timeout, "timeout", 60*time.Second, "per-request timeout")
	fs.StringVar(&o.logPath, "log", defaultLogPath, `log file, "" to disable (the terminal is owned by the board)`)
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	human, err := rules.ParseColor(*color)
	if err != nil {
		return o, err
	}
	o.human = human
	return o, nil
}

// openLog opens path for appending. An empty path discards logs.
func openLog(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if o.version {
		fmt.Println("tinyboard", buildinfo.String())
		return
	}

	out, closeLog, err := openLog(o.logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log:", err)
		os.Exit(1)
	}
	defer closeLog()
	log := logging.NewPlain(out, o.debug)
	log.Info().Str("version", buildinfo.String()).Str("server", o.server).Str("color", o.human.String()).Msg("tinyboard starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := authority.New(o.server, authority.WithTimeout(o.timeout), authority.WithLogger(log))
	view := tui.New(client, o.human, log)
	ctl := controller.New(client, board.NewMirror(), controller.Config{
		Human:    o.human,
		Opponent: controller.OpponentConfig{Strength: o.elo, ThinkTime: o.think},
		Logger:   log,
		OnChange: view.Notify,
	})

	if err := view.Run(ctx, ctl); err != nil {
		fmt.Fprintln(os.Stderr, "tinyboard:", err)
		os.Exit(1)
	}
}
