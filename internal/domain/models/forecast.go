package models

import "time"

// ForecastRow is one ticker on one of the next forecast dates. The whole
// forecast table is recomputed and replaced on every run.
type ForecastRow struct {
	Seance        time.Time
	Code          string
	Valeur        string
	Cloture       float64
	Volume        int64
	VarCloture    float64
	VarVolume     float64
	ProbLiquidity float64
}

// MoodScore is the cross-sectional market mood of one trading date: five
// 0-100 sub-scores and their weighted composite.
type MoodScore struct {
	Seance    time.Time
	Direction float64
	Breadth   float64
	Liquidity float64
	Intensity float64
	News      float64
	Composite float64
}

// AnomalyEvent is the payload published for every flagged ticker-day.
type AnomalyEvent struct {
	Seance   string  `json:"seance"`
	Code     string  `json:"code"`
	Valeur   string  `json:"valeur"`
	Kind     string  `json:"kind"` // volume or variation
	ZScore   float64 `json:"z_score"`
	PostNews bool    `json:"post_news"`
	PreNews  bool    `json:"pre_news"`
}
