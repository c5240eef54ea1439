package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contentguard/backend/internal/models"
	"go.uber.org/zap"
)

// RawScoreSet maps every label a model assigned to its score
type RawScoreSet map[string]float64

// RawResult is what a classifier adapter hands to the normalizer
type RawResult struct {
	Scores       RawScoreSet
	HarmfulScore float64
}

// Classifier scores one kind of content
type Classifier interface {
	ContentType() models.ContentType
	Classify(ctx context.Context, payload []byte) (*RawResult, error)
}

// LogStore is the append-only decision log
type LogStore interface {
	Insert(ctx context.Context, d *models.ModerationDecision) (int64, error)
	Count(ctx context.Context) (int64, error)
	Scan(ctx context.Context) ([]models.ModerationDecision, error)
	Clear(ctx context.Context) error
}

// Notifier is told about log changes after they are committed
type Notifier interface {
	DecisionLogged(ctx context.Context, d models.ModerationDecision) error
	LogsCleared(ctx context.Context) error
}

// Recorder receives pipeline measurements
type Recorder interface {
	ObserveInference(ct models.ContentType, elapsed time.Duration)
	DecisionLogged(d models.ModerationDecision)
	Failure(ct models.ContentType, kind Kind)
}

// Pipeline runs classifier -> normalizer -> log store for one submission
type Pipeline struct {
	classifiers map[models.ContentType]Classifier
	store       LogStore
	notifier    Notifier
	recorder    Recorder
	logger      *zap.Logger
}

// NewPipeline wires the pipeline. notifier and recorder may be nil.
func NewPipeline(store LogStore, notifier Notifier, recorder Recorder, logger *zap.Logger, classifiers ...Classifier) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		classifiers: make(map[models.ContentType]Classifier, len(classifiers)),
		store:       store,
		notifier:    notifier,
		recorder:    recorder,
		logger:      logger.With(zap.String("component", "pipeline")),
	}
	for _, c := range classifiers {
		p.classifiers[c.ContentType()] = c
	}
	return p
}

// Analyze classifies payload and logs the decision.
//
// When the store fails the computed decision is still returned, with ID 0,
// alongside a KindStorageUnavailable error.
func (p *Pipeline) Analyze(ctx context.Context, ct models.ContentType, payload []byte) (*models.ModerationDecision, error) {
	c, ok := p.classifiers[ct]
	if !ok {
		return nil, p.fail(ct, ValidationError("analyze", CodeUnsupportedContentType, fmt.Errorf("no classifier for %q", ct)))
	}
	if ct == models.ContentTypeText && strings.TrimSpace(string(payload)) == "" {
		return nil, p.fail(ct, ValidationError("analyze", CodeEmptyText, nil))
	}

	start := time.Now()
	raw, err := c.Classify(ctx, payload)
	if p.recorder != nil {
		p.recorder.ObserveInference(ct, time.Since(start))
	}
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = InferenceError("classify", CodeInferenceFailed, err)
		}
		return nil, p.fail(ct, err)
	}
	if raw == nil {
		return nil, p.fail(ct, InferenceError("classify", CodeMalformedOutput, fmt.Errorf("classifier returned no result")))
	}

	decision, err := Normalize(ct, raw.HarmfulScore)
	if err != nil {
		return nil, p.fail(ct, err)
	}

	if _, err := p.store.Insert(ctx, &decision); err != nil {
		if KindOf(err) == KindUnknown {
			err = StorageError("insert", err)
		}
		p.logger.Error("decision computed but not logged",
			zap.String("content_type", string(ct)),
			zap.String("status", decision.Status),
			zap.Float64("confidence", decision.Confidence),
			zap.Error(err))
		return &decision, p.fail(ct, err)
	}

	if p.recorder != nil {
		p.recorder.DecisionLogged(decision)
	}
	if p.notifier != nil {
		if err := p.notifier.DecisionLogged(ctx, decision); err != nil {
			p.logger.Warn("failed to publish decision", zap.Int64("id", decision.ID), zap.Error(err))
		}
	}

	p.logger.Debug("decision logged",
		zap.Int64("id", decision.ID),
		zap.String("content_type", string(ct)),
		zap.String("status", decision.Status),
		zap.Float64("confidence", decision.Confidence))
	return &decision, nil
}

// Logs returns every decision in insertion order
func (p *Pipeline) Logs(ctx context.Context) ([]models.ModerationDecision, error) {
	logs, err := p.store.Scan(ctx)
	if err != nil {
		return nil, asStorageError("scan", err)
	}
	return logs, nil
}

// Count returns the number of logged decisions
func (p *Pipeline) Count(ctx context.Context) (int64, error) {
	n, err := p.store.Count(ctx)
	if err != nil {
		return 0, asStorageError("count", err)
	}
	return n, nil
}

// Clear removes every logged decision
func (p *Pipeline) Clear(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return asStorageError("clear", err)
	}
	p.logger.Info("moderation log cleared")
	if p.notifier != nil {
		if err := p.notifier.LogsCleared(ctx); err != nil {
			p.logger.Warn("failed to publish log reset", zap.Error(err))
		}
	}
	return nil
}

func (p *Pipeline) fail(ct models.ContentType, err error) error {
	if p.recorder != nil {
		p.recorder.Failure(ct, KindOf(err))
	}
	return err
}

func asStorageError(op string, err error) error {
	if KindOf(err) == KindUnknown {
		return StorageError(op, err)
	}
	return err
}
