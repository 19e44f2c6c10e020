package repository

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"TunPulse/internal/domain/models"
	"TunPulse/pkg/util"
)

// ReadMarketCSV reads the raw new-day market export: one row per traded
// ticker with OHLCV columns and no derived fields.
func ReadMarketCSV(path string) ([]models.SessionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read market file: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("market file %s has no data rows", path)
	}
	cols := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		cols[h] = i
	}

	rows := make([]models.SessionRow, 0, len(all)-1)
	for i, rec := range all[1:] {
		seance, ok := util.ParseSeance(field(rec, cols, "SEANCE"))
		if !ok {
			return nil, fmt.Errorf("market file line %d: bad SEANCE value %q", i+2, field(rec, cols, "SEANCE"))
		}
		rows = append(rows, models.SessionRow{
			Seance:           seance,
			Groupe:           field(rec, cols, "GROUPE"),
			Code:             field(rec, cols, "CODE"),
			Valeur:           field(rec, cols, "VALEUR"),
			Ouverture:        floatField(rec, cols, "OUVERTURE"),
			Cloture:          floatField(rec, cols, "CLOTURE"),
			PlusBas:          floatField(rec, cols, "PLUS_BAS"),
			PlusHaut:         floatField(rec, cols, "PLUS_HAUT"),
			QuantiteNegociee: floatField(rec, cols, "QUANTITE_NEGOCIEE"),
			NbTransaction:    floatField(rec, cols, "NB_TRANSACTION"),
			Capitaux:         floatField(rec, cols, "CAPITAUX"),
			IndiceJour: [models.NumIndices]float64{
				models.IdxTUNBANQ:    floatField(rec, cols, "TUNBANQ_INDICE_JOUR"),
				models.IdxTUNFIN:     floatField(rec, cols, "TUNFIN_INDICE_JOUR"),
				models.IdxTUNINDEX:   floatField(rec, cols, "TUNINDEX_INDICE_JOUR"),
				models.IdxTUNINDEX20: floatField(rec, cols, "TUNINDEX20_INDICE_JOUR"),
				models.IdxTUNSAC:     floatField(rec, cols, "TUNSAC_INDICE_JOUR"),
			},
		})
	}
	return rows, nil
}

type sentimentExport struct {
	Articles []struct {
		Date           string   `json:"date"`
		Tickers        []string `json:"tickers"`
		SentimentScore float64  `json:"sentiment_score"`
		Confidence     float64  `json:"confidence"`
	} `json:"articles"`
}

// ReadSentimentExport reads the news sentiment JSON export. Articles with an
// unparseable date are dropped rather than failing the run.
func ReadSentimentExport(path string) ([]models.Article, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sentiment export: %w", err)
	}
	var export sentimentExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, fmt.Errorf("decode sentiment export: %w", err)
	}

	articles := make([]models.Article, 0, len(export.Articles))
	for _, a := range export.Articles {
		date, ok := util.ParseSeance(a.Date)
		if !ok {
			continue
		}
		articles = append(articles, models.Article{
			Date:           date,
			Tickers:        a.Tickers,
			SentimentScore: a.SentimentScore,
			Confidence:     a.Confidence,
		})
	}
	return articles, nil
}
