package qa

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biokg/kgbench/internal/artifacts"
	"github.com/biokg/kgbench/internal/graph"
	"github.com/biokg/kgbench/internal/metrics"
)

const generationAttempts = 2

// Sampler provides pattern-instance candidates from the graph store.
type Sampler interface {
	RelationTypes(ctx context.Context) ([]string, error)
	Triples(ctx context.Context, relType string, limit int) ([]graph.Triple, error)
	TwoHopPaths(ctx context.Context, limit int) ([]graph.TwoHopPath, error)
	Intersections(ctx context.Context, limit int) ([]graph.Intersection, error)
	AttributeNodes(ctx context.Context, limit int) ([]graph.AttributeNode, error)
}

// Retriever supplies literature evidence for an entity pair.
type Retriever interface {
	Lookup(ctx context.Context, head, tail string) (string, error)
}

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratorOptions tunes the generation run.
type GeneratorOptions struct {
	// Targets maps each question type to the number of items to generate.
	Targets map[QuestionType]int
	// SampleLimit bounds each graph sampling query.
	SampleLimit int
	// IntermediateEvery writes a snapshot after this many kept items.
	IntermediateEvery int
	// Seed fixes the shuffle order; 0 means time-seeded.
	Seed int64
}

// Generator walks the four pattern templates in order, turning graph
// matches into question-answer items. Everything runs sequentially; a
// sampling failure is fatal while per-item retrieval or generation
// failures skip the candidate.
type Generator struct {
	sampler   Sampler
	retriever Retriever
	llm       Completer
	logger    *zap.Logger
	writer    *artifacts.Writer
	collector *metrics.Collector

	targets           map[QuestionType]int
	sampleLimit       int
	intermediateEvery int
	rng               *rand.Rand

	items  []Item
	counts map[QuestionType]int
	seen   map[string]struct{}
}

// NewGenerator wires a generator. writer and collector may be nil when
// intermediates or metrics are not wanted.
func NewGenerator(sampler Sampler, retriever Retriever, llm Completer, logger *zap.Logger, writer *artifacts.Writer, collector *metrics.Collector, opts GeneratorOptions) *Generator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sampleLimit := opts.SampleLimit
	if sampleLimit <= 0 {
		sampleLimit = 1000
	}
	intermediateEvery := opts.IntermediateEvery
	if intermediateEvery <= 0 {
		intermediateEvery = 50
	}
	targets := make(map[QuestionType]int, len(opts.Targets))
	for questionType, target := range opts.Targets {
		targets[questionType] = target
	}

	return &Generator{
		sampler:           sampler,
		retriever:         retriever,
		llm:               llm,
		logger:            logger,
		writer:            writer,
		collector:         collector,
		targets:           targets,
		sampleLimit:       sampleLimit,
		intermediateEvery: intermediateEvery,
		rng:               rand.New(rand.NewSource(seed)),
		counts:            make(map[QuestionType]int),
		seen:              make(map[string]struct{}),
	}
}

// Counts returns the number of items generated per question type.
func (g *Generator) Counts() map[QuestionType]int {
	out := make(map[QuestionType]int, len(g.counts))
	for questionType, count := range g.counts {
		out[questionType] = count
	}
	return out
}

// Run generates all question types in fixed order and returns the
// accumulated items.
func (g *Generator) Run(ctx context.Context) ([]Item, error) {
	if err := g.generateOneHop(ctx); err != nil {
		return nil, err
	}
	if err := g.generateTwoHop(ctx); err != nil {
		return nil, err
	}
	if err := g.generateIntersection(ctx); err != nil {
		return nil, err
	}
	if err := g.generateAttribute(ctx); err != nil {
		return nil, err
	}

	g.logger.Info("generation complete",
		zap.Int("total", len(g.items)),
		zap.Int("one_hop", g.counts[OneHop]),
		zap.Int("two_hop", g.counts[TwoHop]),
		zap.Int("intersection", g.counts[Intersection]),
		zap.Int("attribute", g.counts[Attribute]))
	return g.items, nil
}

func (g *Generator) generateOneHop(ctx context.Context) error {
	target := g.targets[OneHop]
	if target <= 0 {
		return nil
	}
	g.logger.Info("generating one-hop questions", zap.Int("target", target))

	relTypes, err := g.sampler.RelationTypes(ctx)
	if err != nil {
		return fmt.Errorf("list relation types: %w", err)
	}

	for _, relType := range relTypes {
		if g.counts[OneHop] >= target {
			break
		}
		triples, err := g.sampler.Triples(ctx, relType, g.sampleLimit)
		if err != nil {
			return fmt.Errorf("sample triples for %s: %w", relType, err)
		}
		g.rng.Shuffle(len(triples), func(i, j int) {
			triples[i], triples[j] = triples[j], triples[i]
		})

		for _, triple := range triples {
			if g.counts[OneHop] >= target {
				break
			}
			item := Item{
				QuestionType: OneHop,
				Head:         triple.Head,
				HeadType:     triple.HeadType,
				Relation:     triple.Relation,
				Tail:         triple.Tail,
				TailType:     triple.TailType,
			}
			triple := triple
			g.emit(ctx, item, triple.Head, triple.Tail, func(evidence string) string {
				return onehopPrompt(triple, evidence)
			})
		}
	}
	return nil
}

func (g *Generator) generateTwoHop(ctx context.Context) error {
	target := g.targets[TwoHop]
	if target <= 0 {
		return nil
	}
	g.logger.Info("generating two-hop questions", zap.Int("target", target))

	paths, err := g.sampler.TwoHopPaths(ctx, g.sampleLimit)
	if err != nil {
		return fmt.Errorf("sample two-hop paths: %w", err)
	}
	g.rng.Shuffle(len(paths), func(i, j int) {
		paths[i], paths[j] = paths[j], paths[i]
	})

	for _, path := range paths {
		if g.counts[TwoHop] >= target {
			break
		}
		item := Item{
			QuestionType: TwoHop,
			Head:         path.Head,
			HeadType:     path.HeadType,
			Relation:     path.Relation1,
			Mid:          path.Mid,
			MidType:      path.MidType,
			Relation2:    path.Relation2,
			Tail:         path.Tail,
			TailType:     path.TailType,
		}
		path := path
		g.emit(ctx, item, path.Head, path.Tail, func(evidence string) string {
			return twohopPrompt(path, evidence)
		})
	}
	return nil
}

func (g *Generator) generateIntersection(ctx context.Context) error {
	target := g.targets[Intersection]
	if target <= 0 {
		return nil
	}
	g.logger.Info("generating intersection questions", zap.Int("target", target))

	intersections, err := g.sampler.Intersections(ctx, g.sampleLimit)
	if err != nil {
		return fmt.Errorf("sample intersections: %w", err)
	}
	g.rng.Shuffle(len(intersections), func(i, j int) {
		intersections[i], intersections[j] = intersections[j], intersections[i]
	})

	for _, intersection := range intersections {
		if g.counts[Intersection] >= target {
			break
		}
		item := Item{
			QuestionType: Intersection,
			Head:         intersection.Head1,
			HeadType:     intersection.Head1Type,
			Relation:     intersection.Relation1,
			Common:       intersection.Common,
			CommonType:   intersection.CommonType,
			Relation2:    intersection.Relation2,
			Head2:        intersection.Head2,
			Head2Type:    intersection.Head2Type,
		}
		intersection := intersection
		g.emit(ctx, item, intersection.Head1, intersection.Head2, func(evidence string) string {
			return intersectionPrompt(intersection, evidence)
		})
	}
	return nil
}

func (g *Generator) generateAttribute(ctx context.Context) error {
	target := g.targets[Attribute]
	if target <= 0 {
		return nil
	}
	g.logger.Info("generating attribute questions", zap.Int("target", target))

	nodes, err := g.sampler.AttributeNodes(ctx, g.sampleLimit)
	if err != nil {
		return fmt.Errorf("sample attribute nodes: %w", err)
	}
	g.rng.Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})

	for _, node := range nodes {
		if g.counts[Attribute] >= target {
			break
		}
		item := Item{
			QuestionType: Attribute,
			Entity:       node.Name,
			Description:  node.Description,
		}
		node := node
		g.emit(ctx, item, node.Name, node.Description, func(evidence string) string {
			return attributePrompt(node, evidence)
		})
	}
	return nil
}

// emit runs the retrieval-prompt-parse sequence for one candidate and
// appends the item when everything holds up. Per-candidate failures
// only skip the candidate.
func (g *Generator) emit(ctx context.Context, item Item, queryHead, queryTail string, prompt func(evidence string) string) {
	evidence, err := g.retriever.Lookup(ctx, queryHead, queryTail)
	if err != nil {
		g.logger.Warn("literature lookup failed",
			zap.String("question_type", string(item.QuestionType)),
			zap.String("query", queryHead+" "+queryTail),
			zap.Error(err))
		g.drop(item.QuestionType, "retrieval_error")
		return
	}
	if evidence == "" {
		g.drop(item.QuestionType, "no_literature")
		return
	}

	question, answer, ok := g.completeWithRetry(ctx, prompt(evidence), item.QuestionType)
	if !ok {
		g.drop(item.QuestionType, "generation_failed")
		return
	}
	if _, duplicate := g.seen[question]; duplicate {
		g.logger.Warn("duplicate question dropped", zap.String("question_type", string(item.QuestionType)))
		g.drop(item.QuestionType, "duplicate_question")
		return
	}
	g.seen[question] = struct{}{}

	item.ID = uuid.NewString()
	item.Question = question
	item.Answer = answer
	item.Evidence = evidence
	item.PubMedQuery = queryHead + " " + queryTail

	g.items = append(g.items, item)
	g.counts[item.QuestionType]++
	if g.collector != nil {
		g.collector.ObserveItemGenerated(string(item.QuestionType))
	}
	g.maybeSnapshot()
}

func (g *Generator) completeWithRetry(ctx context.Context, prompt string, questionType QuestionType) (string, string, bool) {
	for attempt := 1; attempt <= generationAttempts; attempt++ {
		start := time.Now()
		content, err := g.llm.Complete(ctx, prompt)
		if g.collector != nil {
			g.collector.ObserveLLMCall(time.Since(start))
		}
		if err != nil {
			g.logger.Warn("generation attempt failed",
				zap.String("question_type", string(questionType)),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", generationAttempts),
				zap.Error(err))
			continue
		}

		question, answer := ParseResponse(content)
		if question != "" && answer != "" {
			return question, answer, true
		}
		g.logger.Warn("model output missing question or answer",
			zap.String("question_type", string(questionType)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", generationAttempts))
	}
	return "", "", false
}

func (g *Generator) drop(questionType QuestionType, reason string) {
	if g.collector != nil {
		g.collector.ObserveItemDropped(string(questionType), reason)
	}
}

func (g *Generator) maybeSnapshot() {
	if g.writer == nil || len(g.items)%g.intermediateEvery != 0 {
		return
	}
	name := fmt.Sprintf("intermediates/qa_pairs_intermediate_%d.json", len(g.items))
	if path, err := g.writer.WriteJSON(name, g.items); err != nil {
		g.logger.Warn("intermediate snapshot failed", zap.Error(err))
	} else {
		g.logger.Info("intermediate snapshot written", zap.String("path", path))
	}
}
