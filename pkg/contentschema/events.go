package contentschema

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ModelCreated(ctx context.Context, model *ContentModel) error { return nil }

func (n *NoopEventSink) ModelUpdated(ctx context.Context, model *ContentModel) error { return nil }

func (n *NoopEventSink) ModelDeleted(ctx context.Context, modelID uuid.UUID) error { return nil }

func (n *NoopEventSink) RelationCreated(ctx context.Context, relation *Relation) error { return nil }

func (n *NoopEventSink) RelationDeleted(ctx context.Context, relationID uuid.UUID) error { return nil }

func (n *NoopEventSink) RuleCreated(ctx context.Context, rule *ValidationRule) error { return nil }

func (n *NoopEventSink) RuleDeleted(ctx context.Context, ruleID uuid.UUID) error { return nil }

// LoggingEventSink writes schema lifecycle events to a structured logger.
type LoggingEventSink struct {
	log *zap.Logger
}

// NewLoggingEventSink creates an event sink backed by the given logger.
func NewLoggingEventSink(log *zap.Logger) EventSink {
	return &LoggingEventSink{log: log}
}

func (s *LoggingEventSink) ModelCreated(ctx context.Context, model *ContentModel) error {
	s.log.Info("model created",
		zap.String("model_id", model.ID.String()),
		zap.String("name", model.Name))
	return nil
}

func (s *LoggingEventSink) ModelUpdated(ctx context.Context, model *ContentModel) error {
	s.log.Info("model updated",
		zap.String("model_id", model.ID.String()),
		zap.String("name", model.Name))
	return nil
}

func (s *LoggingEventSink) ModelDeleted(ctx context.Context, modelID uuid.UUID) error {
	s.log.Info("model deleted", zap.String("model_id", modelID.String()))
	return nil
}

func (s *LoggingEventSink) RelationCreated(ctx context.Context, relation *Relation) error {
	s.log.Info("relation created",
		zap.String("relation_id", relation.ID.String()),
		zap.String("name", relation.Name),
		zap.String("cardinality", string(relation.Cardinality)))
	return nil
}

func (s *LoggingEventSink) RelationDeleted(ctx context.Context, relationID uuid.UUID) error {
	s.log.Info("relation deleted", zap.String("relation_id", relationID.String()))
	return nil
}

func (s *LoggingEventSink) RuleCreated(ctx context.Context, rule *ValidationRule) error {
	s.log.Info("validation rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("type", string(rule.Type)))
	return nil
}

func (s *LoggingEventSink) RuleDeleted(ctx context.Context, ruleID uuid.UUID) error {
	s.log.Info("validation rule deleted", zap.String("rule_id", ruleID.String()))
	return nil
}
