// Command pushauth publishes events, issues channel authorization tokens and
// serves the authorization endpoint for a Pusher Channels application.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/vitalvas/pushauth/authhandler"
	"github.com/vitalvas/pushauth/config"
	"github.com/vitalvas/pushauth/pusher"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "publish":
		err = cmdPublish(ctx, os.Args[2:], os.Stdout)
	case "auth":
		err = cmdAuth(os.Args[2:], os.Stdout)
	case "serve":
		err = cmdServe(ctx, os.Args[2:])
	case "version":
		fmt.Printf("pushauth %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: pushauth <command> [flags]

Commands:
  publish   Trigger an event (-channel, -event, -data)
  auth      Print an authorization token (-socket, -channel, -user-id, -user-info)
  serve     Run the authorization endpoint
  version   Print version information
  help      Show this help

Every command except version accepts -config <path>. PUSHER_URL, PUSHER_APP_ID,
PUSHER_KEY, PUSHER_SECRET, PUSHER_CLUSTER and PUSHER_ENABLED override the file.`)
}

// setup loads the configuration and builds the logger and client from it.
func setup(path string, opts ...pusher.Option) (config.Config, *zap.Logger, *pusher.Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	ep, err := cfg.Endpoint()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	opts = append([]pusher.Option{
		pusher.WithHTTPClient(cfg.HTTPClient()),
		pusher.WithLogger(logger),
		pusher.WithEnabled(cfg.IsEnabled()),
	}, opts...)

	client, err := pusher.NewFromEndpoint(ep, opts...)
	if err != nil {
		_ = logger.Sync()
		return config.Config{}, nil, nil, err
	}

	return cfg, logger, client, nil
}

func cmdPublish(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to the YAML configuration")
	channels := fs.String("channel", "", "comma separated channel names")
	event := fs.String("event", "", "event name")
	data := fs.String("data", "", "event data as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *channels == "" || *event == "" || *data == "" {
		return errors.New("usage: pushauth publish -channel <names> -event <name> -data <json>")
	}

	if !json.Valid([]byte(*data)) {
		return errors.New("-data must be valid JSON")
	}

	_, logger, client, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	names := strings.Split(*channels, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	if err := client.Trigger(ctx, names, *event, json.RawMessage(*data)); err != nil {
		return err
	}

	logger.Info("event published",
		zap.Strings("channels", names),
		zap.String("event", *event),
		zap.Bool("enabled", client.Enabled()),
	)

	fmt.Fprintln(out, "ok")

	return nil
}

func cmdAuth(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("auth", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to the YAML configuration")
	socketID := fs.String("socket", "", "socket id of the connection")
	channel := fs.String("channel", "", "channel name")
	userID := fs.String("user-id", "", "presence user id")
	userInfo := fs.String("user-info", "", "presence user info as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *socketID == "" || *channel == "" {
		return errors.New("usage: pushauth auth -socket <id> -channel <name> [-user-id <id> -user-info <json>]")
	}

	_, logger, client, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var user *pusher.PresenceUser
	if *userID != "" {
		user = &pusher.PresenceUser{ID: *userID}

		if *userInfo != "" {
			if !json.Valid([]byte(*userInfo)) {
				return errors.New("-user-info must be valid JSON")
			}

			user.Info = json.RawMessage(*userInfo)
		}
	}

	token, err := client.Authenticate(*socketID, *channel, user)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	return enc.Encode(token)
}

func cmdServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to the YAML configuration")
	listen := fs.String("listen", "", "listen address, overrides the configuration")
	path := fs.String("path", authhandler.DefaultPath, "authorization route")
	userHeader := fs.String("user-header", "", "trusted request header carrying the presence user id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cfg, logger, client, err := setup(*configPath, pusher.WithMetrics(reg))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	handlerCfg := authhandler.Config{
		Authorizer: client,
		Path:       *path,
		Logger:     logger,
		Registerer: reg,
		Gatherer:   reg,
	}

	if *userHeader != "" {
		handlerCfg.UserResolver = headerUserResolver(*userHeader)
	}

	handler, err := authhandler.New(handlerCfg)
	if err != nil {
		return err
	}

	addr := cfg.Listen
	if *listen != "" {
		addr = *listen
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("path", *path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// headerUserResolver trusts an upstream proxy to put the authenticated user
// id in header.
func headerUserResolver(header string) func(*http.Request, string) (*pusher.PresenceUser, error) {
	return func(r *http.Request, _ string) (*pusher.PresenceUser, error) {
		id := strings.TrimSpace(r.Header.Get(header))
		if id == "" {
			return nil, authhandler.ErrForbidden
		}

		return &pusher.PresenceUser{ID: id}, nil
	}
}
