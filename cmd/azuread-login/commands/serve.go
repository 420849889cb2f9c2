package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ccakes/azuread/internal/auth"
	"github.com/ccakes/azuread/internal/config"
	"github.com/ccakes/azuread/internal/di"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

// ServeCommand returns the serve command running the demo login server.
func ServeCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the demo login server",
		Description: `Run a small HTTP server exercising the full sign-in flow against the
configured Entra ID authority.

Routes:
  /         protected landing page (redirects to /login when signed out)
  /login    starts the authorization-code flow
  /callback OAuth2 redirect URI
  /logout   clears the session and ends the Entra ID session
  /whoami   JSON profile of the signed-in user (403 when signed out)

Examples:
  # Serve using ./azuread.yaml
  azuread-login serve

  # Serve with a specific config file, bypassing auth for local work
  azuread-login serve --config dev.yaml --disable-auth`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the yaml configuration file",
				Value:   "azuread.yaml",
			},
			&cli.BoolFlag{
				Name:  "disable-auth",
				Usage: "Bypass authentication entirely (development only)",
			},
		},
		Action: func(c *cli.Context) error {
			container, err := di.New(
				di.WithContext(c.Context),
				di.WithConfigPath(c.String("config")),
				di.WithDisableAuth(c.Bool("disable-auth")),
			)
			if err != nil {
				return fmt.Errorf("failed to build container: %w", err)
			}

			return container.Invoke(func(cfg *config.Config, authenticator *auth.Authenticator) error {
				return serve(*logger, cfg, authenticator)
			})
		},
	}
}

func serve(logger zerolog.Logger, cfg *config.Config, authenticator *auth.Authenticator) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", authenticator.HandleLogin)
	mux.HandleFunc("/callback", authenticator.HandleCallback)
	mux.HandleFunc("/logout", authenticator.HandleLogout)
	mux.Handle("/whoami", authenticator.RequireAuth(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, _ := authenticator.CurrentProfile(r)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	})))
	mux.Handle("/", authenticator.RequireAuth(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		profile, ok := authenticator.CurrentProfile(r)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if !ok {
			fmt.Fprint(w, `<p>Signed in.</p> <a href="/logout">Sign out</a>`)
			return
		}
		fmt.Fprintf(w, `<p>Signed in as <strong>%s</strong>.</p> <a href="/logout">Sign out</a>`, profile.EmailOrUsername())
	})))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           loggingMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("redirect_url", cfg.RedirectURL).
		Msg("Starting login server")

	return server.ListenAndServe()
}

// loggingMiddleware logs details about each request and response, tagging
// every request with a ksuid for correlation.
func loggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestLogger := logger.With().
				Str("request_id", ksuid.New().String()).
				Logger()
			r = r.WithContext(requestLogger.WithContext(r.Context()))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			requestLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status_code", rw.statusCode).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
