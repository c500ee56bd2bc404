package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/OsmSharp/ui-sub009/pkg/config"
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/kv"
	"github.com/OsmSharp/ui-sub009/pkg/logger"
	"github.com/OsmSharp/ui-sub009/pkg/osmparser"
	"github.com/OsmSharp/ui-sub009/pkg/router"
	"github.com/OsmSharp/ui-sub009/pkg/server/rest"
	"github.com/OsmSharp/ui-sub009/pkg/server/rest/service"
	"github.com/OsmSharp/ui-sub009/pkg/spatialindex"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	mapFile    = flag.String("f", "map.osm.pbf", "openstreetmap extract the graphs were preprocessed from")
	configFile = flag.String("config", "", "yaml config file, defaults are used when empty")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatal(err)
		}
	}

	lg, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("engine stopped", zap.Error(err))
	}
}

func newIndex(kind string, g *graph.BaseGraph) (spatialindex.Index, error) {
	var idx spatialindex.Index = spatialindex.NewRtree()
	if kind == "h3" {
		idx = spatialindex.NewH3Index()
	}
	if err := spatialindex.IndexWays(g, idx); err != nil {
		return nil, errors.Wrap(err, "index ways")
	}
	return idx, nil
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	speeds, err := cfg.SpeedTable()
	if err != nil {
		return err
	}

	parser := osmparser.NewOSMParser(lg, runtime.GOMAXPROCS(0), datastructure.NewTagsIndex())
	base, err := osmparser.NewFileLoader(*mapFile, parser).Load(ctx)
	if err != nil {
		return err
	}
	idx, err := newIndex(cfg.Routing.SpatialIndex, base)
	if err != nil {
		return err
	}

	r := router.NewRouter(base, idx, interpreter.NewInterpreter(interpreter.WithSpeeds(speeds)), cfg.RouterConfig(), lg)

	db, err := kv.Open(cfg.Storage.Dir, lg)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.Vehicles()
	if err != nil {
		return err
	}
	for _, v := range stored {
		ch, err := db.LoadContractedGraph(ctx, v)
		if err != nil {
			return err
		}
		if err := r.LoadProfile(v, ch); err != nil {
			// the graph was built from another extract, plain search still works.
			lg.Warn("skipping contracted graph", zap.Stringer("vehicle", v), zap.Error(err))
		}
	}
	if len(r.Vehicles()) == 0 {
		lg.Warn("no contracted graph loaded, queries use plain search")
	}

	svc := service.NewNavigationService(r, lg)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: rest.NewServer(cfg.Server.CORSOrigins, svc, prometheus.NewRegistry()),
	}

	errc := make(chan error, 1)
	go func() {
		lg.Info("server started", zap.String("addr", cfg.Server.Addr), zap.Int("profiles", len(r.Vehicles())))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
