package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/tempoled/apimodel"
	"github.com/jypelle/tempoled/internal/srv/config"
	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/jypelle/tempoled/internal/srv/event"
	"github.com/jypelle/tempoled/internal/tool"
	"github.com/sirupsen/logrus"
)

// TelemetryState is what the API reads from and writes to the engine state.
type TelemetryState interface {
	Record(key string, raw string) error
	Snapshot() []engine.Reading
	Stats() engine.TelemetryStats
}

// FrameSource gives the last frame shown on the display.
type FrameSource interface {
	LastImage() image.Image
}

type Api struct {
	eventChannel chan event.ApiEvent
	// closed when the api starts shutting down, nobody reads eventChannel anymore
	stopping chan struct{}
	stopOnce sync.Once

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	telemetry TelemetryState
	frames    FrameSource

	config *config.ServerConfig
}

func NewApi(config *config.ServerConfig, telemetry TelemetryState, frames FrameSource) *Api {
	api := Api{
		config:       config,
		telemetry:    telemetry,
		frames:       frames,
		eventChannel: make(chan event.ApiEvent),
		stopping:     make(chan struct{}),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/series", api.seriesAction).Methods("GET")
	api.apiRouter.HandleFunc("/series/{key}/{value}", api.recordAction).Methods("POST")
	api.apiRouter.HandleFunc("/display/switch",
		func(w http.ResponseWriter, r *http.Request) {
			api.displayAction(w, r, event.ApiEventDisplaySwitchData{})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/display/{state:on|off}",
		func(w http.ResponseWriter, r *http.Request) {
			api.displayAction(w, r, event.ApiEventDisplayPowerData{On: mux.Vars(r)["state"] == "on"})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/display/frame.png", api.frameAction).Methods("GET")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) Handler() http.Handler {
	return d.server.Handler
}

func (d *Api) seriesAction(w http.ResponseWriter, r *http.Request) {
	readings := d.telemetry.Snapshot()
	stats := d.telemetry.Stats()

	status := apimodel.SeriesStatus{
		Readings: make([]apimodel.Reading, 0, len(readings)),
		Stats: apimodel.Stats{
			Seq:       stats.Seq,
			Accepted:  stats.Accepted,
			Unknown:   stats.Unknown,
			Malformed: stats.Malformed,
		},
	}
	for _, reading := range readings {
		status.Readings = append(status.Readings, apimodel.Reading{
			Key:       reading.Key,
			Value:     reading.Value,
			Seq:       reading.Seq,
			UpdatedAt: reading.UpdatedAt,
		})
	}

	jsonAction(w, status)
}

func (d *Api) recordAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := d.telemetry.Record(vars["key"], vars["value"])
	switch {
	case err == nil:
		ErrorStatusAction(w, r, http.StatusOK)
	case errors.Is(err, engine.ErrUnknownSeriesKey):
		GlobalErrorAction(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrMalformedSampleValue):
		GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrTelemetryClosed):
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
	default:
		GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Api) displayAction(w http.ResponseWriter, r *http.Request, data interface{}) {
	result := make(chan event.ApiEventResult, 1)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-d.stopping:
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return
	}

	select {
	case res := <-result:
		if res.Err != nil {
			GlobalErrorAction(w, res.Err.Error(), http.StatusForbidden)
			return
		}
		jsonAction(w, apimodel.DisplayStatus{On: res.DisplayOn})
	case <-d.stopping:
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
	case <-r.Context().Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
	}
}

func (d *Api) frameAction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, d.frames.LastImage()); err != nil {
		logrus.Warnf("Unable to encode frame: %v", err)
	}
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"jypelle",
			"Tempoled Server",
			d.selfSignedKeyFilename(),
			d.selfSignedCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	d.stopOnce.Do(func() { close(d.stopping) })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to shutdown api server: %v", err)
	}
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func jsonAction(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}.SendError(w)
}
