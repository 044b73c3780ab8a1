package loader

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/biokg/kgbench/internal/graph"
	"github.com/biokg/kgbench/internal/metrics"
)

// Store is the subset of the graph store the loader needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	NodeCount(ctx context.Context) (int64, error)
	UpsertNodes(ctx context.Context, nodes []graph.Node) error
	UpsertEdges(ctx context.Context, edges []graph.Edge) error
}

// Stats summarizes a load.
type Stats struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Skipped int `json:"skipped"`
}

// Loader ingests a graph-export CSV into the store. Malformed rows are
// skipped with a warning; a store failure is fatal.
type Loader struct {
	store     Store
	logger    *zap.Logger
	collector *metrics.Collector
}

// New wires a loader. collector may be nil.
func New(store Store, logger *zap.Logger, collector *metrics.Collector) *Loader {
	return &Loader{store: store, logger: logger, collector: collector}
}

// Run loads the CSV into the store. When the store already holds nodes
// and force is false the load is skipped, which together with MERGE-only
// writes makes repeated runs leave the store unchanged. The extracted
// schema is written to schemaPath; if a schema description already
// exists there it is validated against the CSV instead.
func (l *Loader) Run(ctx context.Context, csvPath, schemaPath string, force bool) (Stats, error) {
	if !force {
		count, err := l.store.NodeCount(ctx)
		if err != nil {
			return Stats{}, errors.Wrap(err, "check store population")
		}
		if count > 0 {
			l.logger.Info("store already populated, skipping load (use --force to reload)",
				zap.Int64("nodes", count))
			return Stats{}, nil
		}
	}

	staged, extracted, stats, err := l.ParseCSV(csvPath)
	if err != nil {
		return stats, err
	}

	if schemaPath != "" {
		if err := l.reconcileSchema(extracted, schemaPath); err != nil {
			return stats, err
		}
	}

	if err := l.store.EnsureSchema(ctx); err != nil {
		return stats, errors.Wrap(err, "ensure graph schema")
	}
	if err := l.store.UpsertNodes(ctx, staged.Nodes); err != nil {
		return stats, errors.Wrap(err, "upsert nodes")
	}
	if err := l.store.UpsertEdges(ctx, staged.Edges); err != nil {
		return stats, errors.Wrap(err, "upsert edges")
	}

	if l.collector != nil {
		l.collector.ObserveRowsLoaded("node", stats.Nodes)
		l.collector.ObserveRowsLoaded("edge", stats.Edges)
		l.collector.ObserveRowsLoaded("skipped", stats.Skipped)
	}
	l.logger.Info("graph load complete",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// ParseCSV reads a graph-export CSV into an in-memory graph plus the
// extracted schema. Expected columns: _id and _labels for node rows,
// _start, _end and _type for edge rows; every other column is treated
// as a node attribute.
func (l *Loader) ParseCSV(path string) (*graph.Graph, *Schema, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, Stats{}, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, Stats{}, errors.Wrap(err, "read csv header")
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(name)] = idx
	}
	for _, required := range []string{"_id", "_labels", "_start", "_end", "_type"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, Stats{}, errors.Errorf("csv is missing required column %q", required)
		}
	}

	staged := &graph.Graph{}
	stats := Stats{}
	labelSet := make(map[string]struct{})
	relTypeSet := make(map[string]struct{})

	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Rows with the wrong field count are data defects, not
			// load failures.
			if parseErr := (*csv.ParseError)(nil); errors.As(err, &parseErr) {
				l.logger.Warn("skipping malformed csv row", zap.Int("line", line), zap.Error(err))
				stats.Skipped++
				continue
			}
			return nil, nil, stats, errors.Wrap(err, "read csv row")
		}

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		labels := strings.Trim(field("_labels"), ":")
		start, end := field("_start"), field("_end")

		switch {
		case labels != "":
			id := field("_id")
			if id == "" {
				l.logger.Warn("skipping node row without id", zap.Int("line", line))
				stats.Skipped++
				continue
			}
			attrs := make(map[string]interface{})
			for name, idx := range columns {
				if strings.HasPrefix(name, "_") || name == "name" || idx >= len(row) {
					continue
				}
				if value := strings.TrimSpace(row[idx]); value != "" {
					attrs[name] = value
				}
			}
			staged.AddNode(graph.Node{
				ID:         id,
				Type:       labels,
				Label:      field("name"),
				Attributes: attrs,
			})
			labelSet[labels] = struct{}{}
			stats.Nodes++

		case start != "" && end != "":
			relType := field("_type")
			if relType == "" {
				l.logger.Warn("skipping edge row without type", zap.Int("line", line))
				stats.Skipped++
				continue
			}
			staged.AddEdge(graph.Edge{From: start, To: end, Type: relType})
			relTypeSet[relType] = struct{}{}
			stats.Edges++

		default:
			l.logger.Warn("skipping row that is neither node nor edge", zap.Int("line", line))
			stats.Skipped++
		}
	}

	var attributes []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if name != "" && !strings.HasPrefix(name, "_") {
			attributes = append(attributes, name)
		}
	}

	schema := &Schema{
		NodeLabels:    sortedKeys(labelSet),
		RelationTypes: sortedKeys(relTypeSet),
		Attributes:    attributes,
	}
	return staged, schema, stats, nil
}

// reconcileSchema validates the CSV against a pre-existing schema
// description, or writes the extracted schema when none exists.
func (l *Loader) reconcileSchema(extracted *Schema, schemaPath string) error {
	if _, err := os.Stat(schemaPath); err == nil {
		declared, err := ReadSchemaFile(schemaPath)
		if err != nil {
			return err
		}
		for _, label := range extracted.NodeLabels {
			if !contains(declared.NodeLabels, label) {
				l.logger.Warn("csv contains node label not in declared schema", zap.String("label", label))
			}
		}
		for _, relType := range extracted.RelationTypes {
			if !contains(declared.RelationTypes, relType) {
				l.logger.Warn("csv contains relation type not in declared schema", zap.String("relation_type", relType))
			}
		}
		return nil
	}

	if err := extracted.Write(schemaPath); err != nil {
		return err
	}
	l.logger.Info("schema extracted",
		zap.String("path", schemaPath),
		zap.Int("node_labels", len(extracted.NodeLabels)),
		zap.Int("relation_types", len(extracted.RelationTypes)))
	return nil
}
