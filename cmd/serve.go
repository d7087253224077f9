package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/desim/sim"
)

const maxRequestBodyBytes = 1 << 20

var (
	serveAddr        string        // Listen address
	serveExecTimeCap time.Duration // Upper bound on max_execution_time for submitted experiments
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	ErrorType    string   `json:"errorType"`
	ErrorMessage string   `json:"errorMessage"`
	Outcome      *Outcome `json:"outcome,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve experiments over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		server := &http.Server{
			Addr:              serveAddr,
			Handler:           NewRouter(serveExecTimeCap),
			ReadHeaderTimeout: 10 * time.Second,
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		logrus.Infof("listening on %s", serveAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	},
}

// NewRouter returns the HTTP API. Every submitted experiment gets a wall-clock budget of at
// most execTimeCap per replication; zero leaves the budget to the request.
func NewRouter(execTimeCap time.Duration) http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Post("/experiments", (&experimentHandler{execTimeCap: execTimeCap}).ServeHTTP)
	return router
}

type experimentHandler struct {
	execTimeCap time.Duration
}

func (h *experimentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f := newExperimentFile("api")
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes), &f); err != nil {
		renderError(w, r, http.StatusBadRequest, "InvalidRequest", err, nil)
		return
	}
	if h.execTimeCap > 0 && (f.Experiment.MaxExecutionTime == 0 || f.Experiment.MaxExecutionTime > h.execTimeCap) {
		f.Experiment.MaxExecutionTime = h.execTimeCap
	}
	if err := f.Validate(); err != nil {
		renderError(w, r, http.StatusBadRequest, "InvalidConfiguration", err, nil)
		return
	}

	out, err := RunExperiment(r.Context(), &f)
	switch {
	case err == nil:
		render.JSON(w, r, out)
	case errors.Is(err, sim.ErrConfiguration):
		renderError(w, r, http.StatusBadRequest, "InvalidConfiguration", err, out)
	default:
		logrus.Warnf("experiment %s failed: %v", f.Experiment.Name, err)
		renderError(w, r, http.StatusUnprocessableEntity, "ReplicationFailed", err, out)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, errorType string, err error, out *Outcome) {
	render.Status(r, status)
	render.JSON(w, r, &ErrorResponse{
		ErrorType:    errorType,
		ErrorMessage: err.Error(),
		Outcome:      out,
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().DurationVar(&serveExecTimeCap, "max-exec-time", 30*time.Second, "Upper bound on the per-replication wall-clock budget (0 = none)")

	rootCmd.AddCommand(serveCmd)
}
