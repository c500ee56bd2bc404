package config

import (
	"os"

	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/router"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr        string   `yaml:"addr" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type RoutingConfig struct {
	// SearchRadius is the snapping radius in meters.
	SearchRadius    float64  `yaml:"search_radius" validate:"gt=0,lte=10000"`
	Vehicles        []string `yaml:"vehicles" validate:"min=1,dive,oneof=pedestrian bicycle moped motorcycle car smalltruck bigtruck bus"`
	UnpackCacheSize int      `yaml:"unpack_cache_size" validate:"gte=0"`
	MaxLocalSettled int      `yaml:"max_local_settled" validate:"gt=0"`
	UseAStar        bool     `yaml:"use_astar"`
	SpatialIndex    string   `yaml:"spatial_index" validate:"oneof=rtree h3"`

	WitnessSettledHeuristic   int `yaml:"witness_settled_heuristic" validate:"gt=0"`
	WitnessSettledContraction int `yaml:"witness_settled_contraction" validate:"gt=0"`
	WitnessMaxHops            int `yaml:"witness_max_hops" validate:"gte=0"`
	Workers                   int `yaml:"workers" validate:"gte=1"`
}

type StorageConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Routing RoutingConfig `yaml:"routing"`
	// Speeds maps vehicle -> highway value -> km/h.
	Speeds  map[string]map[string]float64 `yaml:"speeds" validate:"dive,keys,oneof=pedestrian bicycle moped motorcycle car smalltruck bigtruck bus,endkeys,dive,gt=0"`
	Storage StorageConfig                 `yaml:"storage"`
	Log     LogConfig                     `yaml:"log"`
}

func Default() Config {
	rc := router.DefaultConfig()
	return Config{
		Server: ServerConfig{Addr: ":5000", CORSOrigins: []string{"https://*", "http://*"}},
		Routing: RoutingConfig{
			SearchRadius:              rc.SearchRadius,
			Vehicles:                  []string{"car"},
			UnpackCacheSize:           rc.UnpackCacheSize,
			MaxLocalSettled:           rc.MaxLocalSettled,
			SpatialIndex:              "rtree",
			WitnessSettledHeuristic:   rc.Contraction.MaxSettledHeuristic,
			WitnessSettledContraction: rc.Contraction.MaxSettledContraction,
			WitnessMaxHops:            rc.Contraction.MaxHops,
			Workers:                   1,
		},
		Storage: StorageConfig{Dir: "./data/graph"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func (c Config) RouterConfig() router.Config {
	return router.Config{
		SearchRadius:    c.Routing.SearchRadius,
		UnpackCacheSize: c.Routing.UnpackCacheSize,
		MaxLocalSettled: c.Routing.MaxLocalSettled,
		UseAStar:        c.Routing.UseAStar,
		Contraction: contractor.Options{
			MaxSettledHeuristic:   c.Routing.WitnessSettledHeuristic,
			MaxSettledContraction: c.Routing.WitnessSettledContraction,
			MaxHops:               c.Routing.WitnessMaxHops,
			ProgressEvery:         contractor.DefaultOptions().ProgressEvery,
		},
	}
}

func (c Config) Vehicles() ([]interpreter.Vehicle, error) {
	out := make([]interpreter.Vehicle, 0, len(c.Routing.Vehicles))
	for _, name := range c.Routing.Vehicles {
		v, err := interpreter.ParseVehicle(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c Config) SpeedTable() (interpreter.SpeedTable, error) {
	table := make(interpreter.SpeedTable, len(c.Speeds))
	for name, row := range c.Speeds {
		v, err := interpreter.ParseVehicle(name)
		if err != nil {
			return nil, err
		}
		table[v] = row
	}
	return table, nil
}
