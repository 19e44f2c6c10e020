package models

import "time"

// Market index identifiers, in the fixed order the persisted tables and the
// fitted residual models expect.
const (
	IdxTUNBANQ = iota
	IdxTUNFIN
	IdxTUNINDEX
	IdxTUNINDEX20
	IdxTUNSAC
	NumIndices
)

// IndexNames holds the column-name prefixes for the five BVMT indices.
var IndexNames = [NumIndices]string{"TUNBANQ", "TUNFIN", "TUNINDEX", "TUNINDEX20", "TUNSAC"}

// SessionRow is one observation of one ticker on one trading date, together
// with every derived field the pipeline populates. (Code, Seance) is unique
// within the historical table.
type SessionRow struct {
	Seance time.Time
	Groupe string
	Code   string
	Valeur string

	// Raw market observation.
	Ouverture        float64
	Cloture          float64
	PlusBas          float64
	PlusHaut         float64
	QuantiteNegociee float64
	NbTransaction    float64
	Capitaux         float64

	// OHLC-derived ratios.
	IntradayRangePct float64
	DailyReturnPct   float64
	PricePosition    float64
	AvgTradeSize     float64
	PriceImpact      float64
	UpperShadowRatio float64
	LowerShadowRatio float64
	Variation        float64

	// Index levels for the session, previous-session levels and day-over-day
	// percentage variation, indexed by Idx* constants.
	IndiceJour      [NumIndices]float64
	IndiceVeille    [NumIndices]float64
	VariationVeille [NumIndices]float64

	// Sentiment aggregates and their trailing rolling means.
	MeanWeightedSentiment float64
	SentimentIntensity    float64
	ArticleCount          float64
	MeanSentiment3d       float64
	Intensity3d           float64
	ArticleCount3d        float64
	MeanSentiment7d       float64
	Intensity7d           float64
	ArticleCount7d        float64

	// Liquidity probability against the ticker's own historical distribution.
	ProbLiquidity float64

	// Market mood sub-scores, identical for every ticker of one date.
	DirectionScore float64
	BreadthScore   float64
	LiquidityScore float64
	IntensityScore float64
	NewsScore      float64
	MarketMood     float64

	// Anomaly fields against frozen per-ticker parameters.
	VolumeZScore             float64
	VolumeAnomaly            int
	VariationZScore          float64
	VariationAnomaly         int
	VariationAnomalyPostNews int
	VariationAnomalyPreNews  int
	VolumeAnomalyPostNews    int
	VolumeAnomalyPreNews     int
}

// FeatureVector returns the engineered features of the row in the exact order
// the residual models were trained with. The order is a correctness-critical
// inference contract; never reorder.
func (r *SessionRow) FeatureVector() []float64 {
	v := make([]float64, 0, 16+3*NumIndices+9+1)
	v = append(v,
		r.Ouverture,
		r.Cloture,
		r.PlusBas,
		r.PlusHaut,
		r.QuantiteNegociee,
		r.NbTransaction,
		r.Capitaux,
		r.IntradayRangePct,
		r.DailyReturnPct,
		r.PricePosition,
		r.AvgTradeSize,
		r.PriceImpact,
		r.UpperShadowRatio,
		r.LowerShadowRatio,
		r.Variation,
	)
	v = append(v, r.IndiceJour[:]...)
	v = append(v, r.IndiceVeille[:]...)
	v = append(v, r.VariationVeille[:]...)
	v = append(v,
		r.MeanWeightedSentiment,
		r.SentimentIntensity,
		r.ArticleCount,
		r.MeanSentiment3d,
		r.Intensity3d,
		r.ArticleCount3d,
		r.MeanSentiment7d,
		r.Intensity7d,
		r.ArticleCount7d,
		r.ProbLiquidity,
	)
	return v
}

// IndexRow is one session of the index history table.
type IndexRow struct {
	Seance          time.Time
	IndiceJour      [NumIndices]float64
	IndiceVeille    [NumIndices]float64
	VariationVeille [NumIndices]float64
}

// SentimentRow is one (ticker, date) aggregate of the news sentiment feed.
type SentimentRow struct {
	Seance                time.Time
	Valeur                string
	MeanWeightedSentiment float64
	ArticleCount          float64
	SentimentIntensity    float64
}

// Article is one entry of the raw sentiment export. An article may reference
// several tickers and contributes to each of them.
type Article struct {
	Date           time.Time
	Tickers        []string
	SentimentScore float64
	Confidence     float64
}

// LiquidityDist is a ticker's historical liquidity distribution: every finite
// liquidity value over its history plus one sentinel floor value. It is only
// a reference distribution for percentile lookup and is never mutated after
// construction.
type LiquidityDist []float64

// FeatureSet is the feature engineer's output: the combined history-plus-new-day
// table sorted by ticker then date, the per-ticker liquidity distributions
// built from history only, and the new day's index extract.
type FeatureSet struct {
	Combined   []SessionRow
	Liquidity  map[string]LiquidityDist
	NewIndices *IndexRow
}
