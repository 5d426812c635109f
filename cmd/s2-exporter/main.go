package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/airbusgeo/s2-exporter/catalog"
	"github.com/airbusgeo/s2-exporter/export"
	db "github.com/airbusgeo/s2-exporter/interface/database"
	"github.com/airbusgeo/s2-exporter/interface/database/pg"
	"github.com/airbusgeo/s2-exporter/interface/catalog/copernicus"
	"github.com/airbusgeo/s2-exporter/interface/earthengine"
	"github.com/airbusgeo/s2-exporter/interface/messaging/pubsub"
	"github.com/airbusgeo/s2-exporter/location"
	"github.com/airbusgeo/s2-exporter/service"
	"github.com/airbusgeo/s2-exporter/service/log"
	"github.com/airbusgeo/s2-exporter/workflow"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type backendConfig struct {
	Catalog      string // earthengine, copernicus
	Backend      string // earthengine, queue, manifest
	EEProject    string
	PsProject    string
	PsTopic      string
	ManifestURI  string
	S3Options    service.S3Options
	DbConnection string
}

type config struct {
	Run           workflow.Config
	Backend       backendConfig
	LocationsFile string
	Serve         string
	Token         string
	JSON          bool
	ListLocations bool
}

// checkBackends validates the catalog/backend pair.
// Earth Engine loads scenes by asset id: it can only export scenes found in its own catalog.
func checkBackends(catalogName, backend string) error {
	switch catalogName {
	case "earthengine", "copernicus":
	default:
		return fmt.Errorf("unknown catalog: %s", catalogName)
	}
	switch backend {
	case "earthengine", "queue", "manifest":
	default:
		return fmt.Errorf("unknown backend: %s", backend)
	}
	if backend == "earthengine" && catalogName != "earthengine" {
		return fmt.Errorf("backend earthengine requires the earthengine catalog (got %s)", catalogName)
	}
	return nil
}

func newAppConfig() (*config, error) {
	configFile := flag.String("config", "", "json config file (see workflow.Config); flags override it")
	locationsFile := flag.String("locations", "", "json file of additional locations {key: {lon, lat, description}}")
	listLocations := flag.Bool("list-locations", false, "list the known locations and exit")

	defaults := workflow.DefaultConfig()
	loc := flag.String("location", defaults.Location, "location key")
	start := flag.String("start", defaults.StartDate, "start date (included)")
	end := flag.String("end", defaults.EndDate, "end date")
	buffer := flag.Float64("buffer", defaults.BufferKm, "buffer around the location (km)")
	maxCloud := flag.Float64("max-cloud", defaults.MaxCloud, "maximum cloud cover (percent, excluded)")
	folder := flag.String("folder", defaults.Folder, "export folder")
	collection := flag.String("collection", defaults.Collection, "image collection")
	prefix := flag.String("prefix", defaults.NamePrefix, "template of the file names ({LOCATION}, {DATE} and the fields of the product id)")

	catalogName := flag.String("catalog", "earthengine", "scene catalog: earthengine or copernicus")
	backend := flag.String("backend", "earthengine", "export backend: earthengine, queue or manifest")
	eeProject := flag.String("ee-project", os.Getenv("EE_PROJECT"), "cloud project used for Earth Engine")
	psProject := flag.String("ps-project", "", "pubsub project (queue backend)")
	psTopic := flag.String("ps-topic", "s2-exports", "pubsub topic (queue backend)")
	manifestURI := flag.String("manifest-uri", "manifests", "where to write the manifests (manifest backend): local directory, gs://bucket/prefix or s3://bucket/prefix")
	s3Endpoint := flag.String("s3-endpoint", "", "endpoint of a s3-compatible storage (optional)")
	s3Region := flag.String("s3-region", os.Getenv("AWS_REGION"), "s3 region")
	dbConnection := flag.String("db", "", "database connection of the job ledger (optional)")

	serve := flag.String("serve", "", "run the http server on this address (e.g. :8080) instead of a single export")
	token := flag.String("token", os.Getenv("S2_EXPORTER_TOKEN"), "bearer token of the http server (optional)")
	jsonReport := flag.Bool("json", false, "print the report as json")
	flag.Parse()

	runCfg := defaults
	if *configFile != "" {
		var err error
		if runCfg, err = workflow.LoadConfig(*configFile); err != nil {
			return nil, err
		}
	}
	// Explicit flags override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "location":
			runCfg.Location = *loc
		case "start":
			runCfg.StartDate = *start
		case "end":
			runCfg.EndDate = *end
		case "buffer":
			runCfg.BufferKm = *buffer
		case "max-cloud":
			runCfg.MaxCloud = *maxCloud
		case "folder":
			runCfg.Folder = *folder
		case "collection":
			runCfg.Collection = *collection
		case "prefix":
			runCfg.NamePrefix = *prefix
		}
	})

	if err := checkBackends(*catalogName, *backend); err != nil {
		return nil, err
	}
	if (*catalogName == "earthengine" || *backend == "earthengine") && *eeProject == "" {
		return nil, fmt.Errorf("missing ee-project flag (or EE_PROJECT)")
	}
	if *backend == "queue" && *psProject == "" {
		return nil, fmt.Errorf("missing ps-project flag")
	}

	return &config{
		Run: runCfg,
		Backend: backendConfig{
			Catalog:     *catalogName,
			Backend:     *backend,
			EEProject:   *eeProject,
			PsProject:   *psProject,
			PsTopic:     *psTopic,
			ManifestURI: *manifestURI,
			S3Options: service.S3Options{
				Endpoint:  *s3Endpoint,
				Region:    *s3Region,
				AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			},
			DbConnection: *dbConnection,
		},
		LocationsFile: *locationsFile,
		Serve:         *serve,
		Token:         *token,
		JSON:          *jsonReport,
		ListLocations: *listLocations,
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	cfg, err := newAppConfig()
	if err != nil {
		return err
	}

	locations := location.Default()
	if cfg.LocationsFile != "" {
		extra, err := location.Load(cfg.LocationsFile)
		if err != nil {
			return fmt.Errorf("location.Load: %w", err)
		}
		locations = locations.Merge(extra)
	}
	if cfg.ListLocations {
		for _, key := range locations.Keys() {
			l := locations[key]
			fmt.Printf("%-20s %9.4f %9.4f  %s\n", key, l.Lon, l.Lat, l.Description)
		}
		return nil
	}
	if cfg.Serve == "" {
		// Fail on a bad config before connecting to anything
		if err := cfg.Run.Validate(locations); err != nil {
			return err
		}
	}

	var eeClient *earthengine.Client
	if cfg.Backend.Catalog == "earthengine" || cfg.Backend.Backend == "earthengine" {
		if eeClient, err = earthengine.NewClient(ctx, cfg.Backend.EEProject); err != nil {
			return fmt.Errorf("earthengine.NewClient: %w", err)
		}
	}

	// Catalog
	c := &catalog.Catalog{}
	switch cfg.Backend.Catalog {
	case "earthengine":
		c.Provider = eeClient
	case "copernicus":
		c.Provider = &copernicus.Provider{}
	}

	// Export backend
	var submitter export.JobSubmitter
	switch cfg.Backend.Backend {
	case "earthengine":
		submitter = eeClient
	case "queue":
		publisher, err := pubsub.NewPublisher(ctx, cfg.Backend.PsProject, cfg.Backend.PsTopic)
		if err != nil {
			return fmt.Errorf("pubsub.NewPublisher: %w", err)
		}
		defer publisher.Close()
		submitter = &export.QueueSubmitter{Publisher: publisher, Clock: clockwork.NewRealClock()}
	case "manifest":
		storage, err := service.NewStorage(ctx, cfg.Backend.ManifestURI, cfg.Backend.S3Options)
		if err != nil {
			return fmt.Errorf("service.NewStorage: %w", err)
		}
		submitter = &export.ManifestSubmitter{Storage: storage, Clock: clockwork.NewRealClock()}
	}

	// Job ledger
	var ledger db.Ledger
	if cfg.Backend.DbConnection != "" {
		backend, err := pg.New(ctx, cfg.Backend.DbConnection)
		if err != nil {
			return fmt.Errorf("pg.New: %w", err)
		}
		defer backend.Close()
		if err := backend.CreateSchema(ctx); err != nil {
			return err
		}
		ledger = backend
	}

	if cfg.Serve != "" {
		pipeline := workflow.NewPipeline(locations, c, submitter, ledger, workflow.NewMetrics())
		return serve(ctx, cfg, pipeline)
	}

	pipeline := workflow.NewPipeline(locations, c, submitter, ledger, nil)
	report, err := pipeline.Run(ctx, cfg.Run)
	if report != nil {
		if cfg.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		} else {
			fmt.Print(report.Text())
		}
	}
	return err
}

func serve(ctx context.Context, cfg *config, pipeline *workflow.Pipeline) error {
	router := pipeline.NewHandler().(*mux.Router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	headersOk := handlers.AllowedHeaders([]string{"*"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})
	s := &http.Server{
		Addr:              cfg.Serve,
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, handlers.CORS(originsOk, headersOk, methodsOk)(BearerAuthenticate(cfg.Token, router))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Logger(ctx).Sugar().Infof("s2-exporter listens on %s (%s)", cfg.Serve, strings.Join(pipeline.Locations.Keys(), ", "))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
