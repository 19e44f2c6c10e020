package sentiment

import (
	"sort"
	"time"

	"TunPulse/internal/domain/models"
	"TunPulse/pkg/util"
)

// Aggregate turns per-article sentiment entries into per-(ticker, date)
// feature rows for one session date. An article naming several tickers
// contributes to each of them. Weighted sentiment is score x confidence;
// intensity is the sum of absolute weighted sentiments.
func Aggregate(articles []models.Article, date time.Time) []models.SentimentRow {
	date = util.Normalize(date)

	type acc struct {
		sum       float64
		absSum    float64
		count     float64
	}
	byTicker := make(map[string]*acc)
	for _, a := range articles {
		if !util.SameDay(a.Date, date) {
			continue
		}
		weighted := a.SentimentScore * a.Confidence
		for _, ticker := range a.Tickers {
			if ticker == "" {
				continue
			}
			entry := byTicker[ticker]
			if entry == nil {
				entry = &acc{}
				byTicker[ticker] = entry
			}
			entry.sum += weighted
			if weighted < 0 {
				entry.absSum -= weighted
			} else {
				entry.absSum += weighted
			}
			entry.count++
		}
	}

	rows := make([]models.SentimentRow, 0, len(byTicker))
	for ticker, entry := range byTicker {
		rows = append(rows, models.SentimentRow{
			Seance:                date,
			Valeur:                ticker,
			MeanWeightedSentiment: entry.sum / entry.count,
			ArticleCount:          entry.count,
			SentimentIntensity:    entry.absSum,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Valeur < rows[j].Valeur })
	return rows
}
