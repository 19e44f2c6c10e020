package models

// TickerAnomalyParams are the frozen per-ticker detection statistics, fit
// offline and never updated by the pipeline.
type TickerAnomalyParams struct {
	VolumeMean         float64 `json:"volume_mean"`
	VolumeStd          float64 `json:"volume_std"`
	VolumeThreshold    float64 `json:"volume_threshold"`
	VariationMean      float64 `json:"variation_mean"`
	VariationStd       float64 `json:"variation_std"`
	VariationThreshold float64 `json:"variation_threshold"`
}

// AnomalyParams maps ticker code to its frozen detection parameters. Tickers
// absent from the map pass through unflagged.
type AnomalyParams map[string]TickerAnomalyParams

// ScoreParams are the frozen global normalization statistics for the daily
// mood scores.
type ScoreParams struct {
	TunindexRetMean   float64 `json:"tunindex_ret_mean"`
	TunindexRetStd    float64 `json:"tunindex_ret_std"`
	Tunindex20RetMean float64 `json:"tunindex20_ret_mean"`
	Tunindex20RetStd  float64 `json:"tunindex20_ret_std"`
	IntensityP10      float64 `json:"intensity_p10"`
	IntensityP90      float64 `json:"intensity_p90"`
	SentimentMean     float64 `json:"sentiment_mean"`
	SentimentStd      float64 `json:"sentiment_std"`
}
