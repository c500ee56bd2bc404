package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/OsmSharp/ui-sub009/pkg/concurrent"
	"github.com/OsmSharp/ui-sub009/pkg/config"
	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/kv"
	"github.com/OsmSharp/ui-sub009/pkg/logger"
	"github.com/OsmSharp/ui-sub009/pkg/osmparser"
	"github.com/OsmSharp/ui-sub009/pkg/router"
	"github.com/OsmSharp/ui-sub009/pkg/spatialindex"
	"github.com/k0kubun/go-ansi"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	mapFile    = flag.String("f", "map.osm.pbf", "openstreetmap extract (.osm.pbf or .osm)")
	configFile = flag.String("config", "", "yaml config file, defaults are used when empty")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

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
		lg.Fatal("preprocessing failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	vehicles, err := cfg.Vehicles()
	if err != nil {
		return err
	}
	speeds, err := cfg.SpeedTable()
	if err != nil {
		return err
	}

	parser := osmparser.NewOSMParser(lg, runtime.GOMAXPROCS(0), datastructure.NewTagsIndex())
	base, err := osmparser.NewFileLoader(*mapFile, parser).Load(ctx)
	if err != nil {
		return err
	}

	rc := cfg.RouterConfig()
	sequential := cfg.Routing.Workers == 1
	var bar *progressbar.ProgressBar
	if sequential {
		rc.Contraction.OnProgress = func(done, total int) {
			if bar == nil {
				bar = newBar(total)
			}
			bar.Set(done)
		}
	}

	// preprocessing never resolves points, the index stays empty.
	r := router.NewRouter(base, spatialindex.NewRtree(), interpreter.NewInterpreter(interpreter.WithSpeeds(speeds)), rc, lg)

	graphs := make(map[interpreter.Vehicle]*contractor.ContractedGraph, len(vehicles))
	if sequential {
		for i, v := range vehicles {
			fmt.Printf("\n[%d/%d] contracting %s graph\n", i+1, len(vehicles), v)
			bar = nil
			ch, err := r.Preprocess(v)
			if err != nil {
				return err
			}
			if bar != nil {
				bar.Finish()
			}
			graphs[v] = ch
		}
		fmt.Println()
	} else if graphs, err = r.PreprocessAll(vehicles, cfg.Routing.Workers); err != nil {
		return err
	}

	db, err := kv.Open(cfg.Storage.Dir, lg)
	if err != nil {
		return err
	}
	defer db.Close()

	return saveGraphs(ctx, db, graphs, cfg.Routing.Workers)
}

func newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]contracting nodes[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// saveGraphs writes every contracted graph to the store on a pool of workers.
func saveGraphs(ctx context.Context, db *kv.KVDB, graphs map[interpreter.Vehicle]*contractor.ContractedGraph, workers int) error {
	wp := concurrent.NewWorkerPool[concurrent.SaveGraphJob, error](workers, len(graphs))
	for v, ch := range graphs {
		wp.AddJob(concurrent.SaveGraphJob{Vehicle: v, Graph: ch})
	}
	wp.Close()
	wp.Start(func(job concurrent.SaveGraphJob) error {
		return db.SaveContractedGraph(ctx, job.Vehicle, job.Graph)
	})
	wp.Wait()

	var failed []string
	for err := range wp.CollectResults() {
		if err != nil {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("save graphs: %s", strings.Join(failed, "; "))
	}
	return nil
}
