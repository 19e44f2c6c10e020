package repository

import (
	"context"
	"fmt"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	"TunPulse/pkg/kafka"
	"TunPulse/pkg/logger"
	"TunPulse/pkg/util"
)

// AnomalyPublisher emits one Kafka event per anomaly flag, keyed by ticker
// code so events for one ticker stay ordered on a partition.
type AnomalyPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

var _ domrepo.Publisher = (*AnomalyPublisher)(nil)

// NewAnomalyPublisher wraps a producer for the given topic.
func NewAnomalyPublisher(producer *kafka.Producer, topic string, log *logger.Logger) *AnomalyPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &AnomalyPublisher{producer: producer, topic: topic, log: log}
}

// PublishAnomalies builds events for every flagged row and publishes them in
// one batch. Rows without any raised flag produce no event.
func (p *AnomalyPublisher) PublishAnomalies(ctx context.Context, rows []models.SessionRow) error {
	messages := make([]kafka.Message, 0, len(rows))
	for i := range rows {
		for _, ev := range eventsFor(&rows[i]) {
			messages = append(messages, kafka.Message{Key: []byte(ev.Code), Value: ev})
		}
	}
	if len(messages) == 0 {
		return nil
	}
	if err := p.producer.PublishBatch(ctx, p.topic, messages); err != nil {
		return fmt.Errorf("publish anomalies: %w", err)
	}
	p.log.Info("anomaly events published",
		logger.String("topic", p.topic), logger.Int("events", len(messages)))
	return nil
}

// Close closes the underlying producer.
func (p *AnomalyPublisher) Close() error {
	return p.producer.Close()
}

func eventsFor(r *models.SessionRow) []models.AnomalyEvent {
	var events []models.AnomalyEvent
	if r.VolumeAnomaly == 1 {
		events = append(events, models.AnomalyEvent{
			Seance:   util.FormatSeance(r.Seance),
			Code:     r.Code,
			Valeur:   r.Valeur,
			Kind:     "volume",
			ZScore:   r.VolumeZScore,
			PostNews: r.VolumeAnomalyPostNews == 1,
			PreNews:  r.VolumeAnomalyPreNews == 1,
		})
	}
	if r.VariationAnomaly == 1 {
		events = append(events, models.AnomalyEvent{
			Seance:   util.FormatSeance(r.Seance),
			Code:     r.Code,
			Valeur:   r.Valeur,
			Kind:     "variation",
			ZScore:   r.VariationZScore,
			PostNews: r.VariationAnomalyPostNews == 1,
			PreNews:  r.VariationAnomalyPreNews == 1,
		})
	}
	return events
}
