package repository

import (
	"context"
	"fmt"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	"TunPulse/pkg/clickhouse"
	"TunPulse/pkg/logger"
)

var mirrorSchema = []string{
	`CREATE TABLE IF NOT EXISTS market_history (
		seance Date,
		groupe String,
		code String,
		valeur String,
		ouverture Float64,
		cloture Float64,
		plus_bas Float64,
		plus_haut Float64,
		quantite_negociee Float64,
		nb_transaction Float64,
		capitaux Float64,
		variation Float64,
		prob_liquidity Float64,
		market_mood Float64,
		volume_anomaly UInt8,
		variation_anomaly UInt8
	) ENGINE = ReplacingMergeTree()
	ORDER BY (code, seance)`,
	`CREATE TABLE IF NOT EXISTS market_mood (
		seance Date,
		direction Float64,
		breadth Float64,
		liquidity Float64,
		intensity Float64,
		news Float64,
		composite Float64
	) ENGINE = ReplacingMergeTree()
	ORDER BY seance`,
}

// CHMirror copies a run's enriched rows and mood score into ClickHouse for
// ad-hoc analytical queries. ReplacingMergeTree keyed by (code, seance) makes
// re-running a date safe.
type CHMirror struct {
	client *clickhouse.Client
	log    *logger.Logger
}

var _ domrepo.Mirror = (*CHMirror)(nil)

// NewCHMirror ensures the mirror tables exist.
func NewCHMirror(ctx context.Context, client *clickhouse.Client, log *logger.Logger) (*CHMirror, error) {
	if err := client.InitSchema(ctx, mirrorSchema); err != nil {
		return nil, err
	}
	return &CHMirror{client: client, log: log}, nil
}

// MirrorHistory inserts the enriched rows and the day's mood score.
func (m *CHMirror) MirrorHistory(ctx context.Context, rows []models.SessionRow, mood models.MoodScore) error {
	tx, err := m.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mirror begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO market_history (
		seance, groupe, code, valeur, ouverture, cloture, plus_bas, plus_haut,
		quantite_negociee, nb_transaction, capitaux, variation, prob_liquidity,
		market_mood, volume_anomaly, variation_anomaly
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror prepare: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			r.Seance, r.Groupe, r.Code, r.Valeur,
			r.Ouverture, r.Cloture, r.PlusBas, r.PlusHaut,
			r.QuantiteNegociee, r.NbTransaction, r.Capitaux,
			r.Variation, r.ProbLiquidity, r.MarketMood,
			uint8(r.VolumeAnomaly), uint8(r.VariationAnomaly),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("mirror insert history: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO market_mood (
		seance, direction, breadth, liquidity, intensity, news, composite
	) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mood.Seance, mood.Direction, mood.Breadth, mood.Liquidity,
		mood.Intensity, mood.News, mood.Composite,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror insert mood: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mirror commit: %w", err)
	}
	m.log.Info("history mirrored", logger.Int("rows", len(rows)))
	return nil
}

// Close closes the ClickHouse client.
func (m *CHMirror) Close() error {
	return m.client.Close()
}
