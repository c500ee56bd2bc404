package osmparser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Format int

const (
	FormatPBF Format = iota
	FormatXML
)

// FormatOf guesses the input format from the file extension.
func FormatOf(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".pbf"):
		return FormatPBF, nil
	case strings.HasSuffix(path, ".osm"), strings.HasSuffix(path, ".xml"):
		return FormatXML, nil
	}
	return 0, errors.Errorf("file extension %q of %q is not handled", filepath.Ext(path), path)
}

var (
	// highway values that are not roads at all.
	skipHighway = map[string]struct{}{
		"construction": {},
		"proposed":     {},
		"abandoned":    {},
		"razed":        {},
		"platform":     {},
		"bus_stop":     {},
		"street_lamp":  {},
		"elevator":     {},
		"corridor":     {},
		"rest_area":    {},
		"services":     {},
	}

	// tag keys that never influence routing.
	droppedTagKeys = []string{"created_by", "source", "note", "fixme"}
)

const logEvery = 50000

type OsmParser struct {
	log   *zap.Logger
	procs int
	tags  *datastructure.TagsIndex
}

// NewOSMParser returns a parser interning tags into tags, or into a fresh
// index when tags is nil. procs is the number of pbf decoding goroutines.
func NewOSMParser(log *zap.Logger, procs int, tags *datastructure.TagsIndex) *OsmParser {
	if procs < 1 {
		procs = 1
	}
	return &OsmParser{log: log, procs: procs, tags: tags}
}

type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

func (p *OsmParser) scanner(ctx context.Context, r io.Reader, format Format) scanner {
	if format == FormatXML {
		return osmxml.New(ctx, r)
	}
	return osmpbf.New(ctx, r, p.procs)
}

type rawWay struct {
	id    int64
	nodes []int64
	tags  datastructure.TagsCollection
}

type rawRelation struct {
	id      int64
	members []datastructure.Member
	tags    datastructure.TagsCollection
}

type parseState struct {
	ways      []rawWay
	relations []rawRelation
	wayNodes  map[int64]struct{}
	coords    map[int64]datastructure.Coordinate
	nodeTags  map[int64]datastructure.TagsCollection
}

func acceptOsmWay(way *osm.Way) bool {
	if len(way.Nodes) < 2 || way.Tags.Find("area") == "yes" {
		return false
	}
	highway := way.Tags.Find("highway")
	if highway == "" {
		return way.Tags.Find("route") == "road"
	}
	_, skip := skipHighway[highway]
	return !skip
}

func convertTags(tags osm.Tags) datastructure.TagsCollection {
	out := make(datastructure.TagsCollection, 0, len(tags))
	for _, t := range tags {
		dropped := false
		for _, key := range droppedTagKeys {
			if strings.Contains(t.Key, key) {
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, datastructure.Tag{Key: t.Key, Value: t.Value})
		}
	}
	return out
}

func memberKind(t osm.Type) (datastructure.PrimitiveKind, bool) {
	switch t {
	case osm.TypeNode:
		return datastructure.NodePrimitive, true
	case osm.TypeWay:
		return datastructure.WayPrimitive, true
	case osm.TypeRelation:
		return datastructure.RelationPrimitive, true
	}
	return 0, false
}

// Parse reads r twice: ways and turn restrictions first, then the
// coordinates and tags of the nodes those ways use.
func (p *OsmParser) Parse(ctx context.Context, r io.ReadSeeker, format Format) (*graph.BaseGraph, error) {
	state := &parseState{
		wayNodes: make(map[int64]struct{}),
		coords:   make(map[int64]datastructure.Coordinate),
		nodeTags: make(map[int64]datastructure.TagsCollection),
	}
	if err := p.scanWays(ctx, r, format, state); err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "can't seek back after scanning ways")
	}
	if err := p.scanNodes(ctx, r, format, state); err != nil {
		return nil, err
	}
	return p.build(state)
}

func (p *OsmParser) scanWays(ctx context.Context, r io.Reader, format Format, state *parseState) error {
	sc := p.scanner(ctx, r, format)
	defer sc.Close()

	for sc.Scan() {
		switch o := sc.Object().(type) {
		case *osm.Way:
			if !acceptOsmWay(o) {
				continue
			}
			if (len(state.ways)+1)%logEvery == 0 {
				p.log.Info("reading openstreetmap ways", zap.Int("count", len(state.ways)+1))
			}
			way := rawWay{id: int64(o.ID), nodes: make([]int64, 0, len(o.Nodes)), tags: convertTags(o.Tags)}
			for _, n := range o.Nodes {
				id := int64(n.ID)
				if len(way.nodes) > 0 && way.nodes[len(way.nodes)-1] == id {
					continue
				}
				way.nodes = append(way.nodes, id)
				state.wayNodes[id] = struct{}{}
			}
			state.ways = append(state.ways, way)
		case *osm.Relation:
			if o.Tags.Find("type") != "restriction" {
				continue
			}
			rel := rawRelation{id: int64(o.ID), tags: convertTags(o.Tags)}
			for _, m := range o.Members {
				kind, ok := memberKind(m.Type)
				if !ok {
					continue
				}
				rel.members = append(rel.members, datastructure.Member{Type: kind, Ref: m.Ref, Role: m.Role})
			}
			state.relations = append(state.relations, rel)
		}
	}
	return errors.Wrap(sc.Err(), "scan ways")
}

func (p *OsmParser) scanNodes(ctx context.Context, r io.Reader, format Format, state *parseState) error {
	sc := p.scanner(ctx, r, format)
	defer sc.Close()

	count := 0
	for sc.Scan() {
		node, ok := sc.Object().(*osm.Node)
		if !ok {
			continue
		}
		id := int64(node.ID)
		if _, used := state.wayNodes[id]; !used {
			continue
		}
		count++
		if count%logEvery == 0 {
			p.log.Info("reading openstreetmap nodes", zap.Int("count", count))
		}
		state.coords[id] = datastructure.NewCoordinate(node.Lat, node.Lon)
		if tags := convertTags(node.Tags); len(tags) > 0 {
			state.nodeTags[id] = tags
		}
	}
	return errors.Wrap(sc.Err(), "scan nodes")
}

func (p *OsmParser) build(state *parseState) (*graph.BaseGraph, error) {
	b := graph.NewBuilder(p.tags)
	for id, coord := range state.coords {
		if err := b.AddVertex(id, coord); err != nil {
			return nil, errors.Wrap(err, "add vertex")
		}
		b.SetNodeTags(id, state.nodeTags[id])
	}

	truncated := 0
	for _, way := range state.ways {
		// ways leaving the extract keep their part inside it.
		nodes := way.nodes[:0]
		for _, n := range way.nodes {
			if _, ok := state.coords[n]; ok {
				nodes = append(nodes, n)
			}
		}
		if len(nodes) < len(way.nodes) {
			truncated++
		}
		if len(nodes) < 2 {
			continue
		}
		if err := b.AddWay(way.id, nodes, way.tags); err != nil {
			return nil, errors.Wrap(err, "add way")
		}
	}

	for _, rel := range state.relations {
		b.AddRelation(rel.id, rel.members, rel.tags)
	}

	g := b.Build()
	p.log.Info("openstreetmap graph loaded",
		zap.Int("vertices", g.NumVertices()), zap.Int("ways", g.NumWays()),
		zap.Int("restrictions", len(state.relations)), zap.Int("truncated_ways", truncated))
	return g, nil
}

// FileLoader is a graph.GraphLoader reading one OSM extract from disk.
type FileLoader struct {
	path   string
	parser *OsmParser
}

func NewFileLoader(path string, parser *OsmParser) *FileLoader {
	return &FileLoader{path: path, parser: parser}
}

func (l *FileLoader) Load(ctx context.Context) (*graph.BaseGraph, error) {
	format, err := FormatOf(l.path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", l.path)
	}
	defer f.Close()
	return l.parser.Parse(ctx, f, format)
}
