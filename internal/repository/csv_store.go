package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	"TunPulse/pkg/logger"
	"TunPulse/pkg/util"
)

// Persisted table file names under the data directory.
const (
	historyFile   = "historical_data.csv"
	indexFile     = "index_historical_data.csv"
	sentimentFile = "sentiment_features.csv"
	forecastFile  = "forecast_next_5_days.csv"
)

var historyHeader = []string{
	"SEANCE", "GROUPE", "CODE", "VALEUR",
	"OUVERTURE", "CLOTURE", "PLUS_BAS", "PLUS_HAUT",
	"QUANTITE_NEGOCIEE", "NB_TRANSACTION", "CAPITAUX",
	"VARIATION", "PROB_LIQUIDITY",
	"TUNINDEX_INDICE_JOUR", "TUNINDEX20_INDICE_JOUR",
	"Mean_Weighted_Sentiment", "Article_Count", "Sentiment_Intensity",
	"DirectionScore", "BreadthScore", "LiquidityScore", "IntensityScore", "NewsScore", "MarketMood",
	"volume_z_score", "VOLUME_Anomaly",
	"variation_z_score", "VARIATION_ANOMALY",
	"VARIATION_ANOMALY_POST_NEWS", "VARIATION_ANOMALY_PRE_NEWS",
	"VOLUME_ANOMALY_POST_NEWS", "VOLUME_ANOMALY_PRE_NEWS",
}

var sentimentHeader = []string{
	"VALEUR", "SEANCE", "Mean_Weighted_Sentiment", "Article_Count", "Sentiment_Intensity",
}

var forecastHeader = []string{
	"SEANCE", "CODE", "VALEUR", "CLOTURE", "VOLUME", "VAR_CLOTURE", "VAR_VOLUME", "PROB_LIQUIDITY",
}

func indexHeader() []string {
	h := []string{"SEANCE"}
	for _, name := range models.IndexNames {
		h = append(h, name+"_INDICE_JOUR")
	}
	for _, name := range models.IndexNames {
		h = append(h, name+"_INDICE_VEILLE")
	}
	for _, name := range models.IndexNames {
		h = append(h, name+"_VARIATION_VEILLE")
	}
	return h
}

// CSVStore persists the pipeline tables as CSV files under a single data
// directory. Writes go through a temp file and an atomic rename, serialized
// by a mutex, so a crashed run never leaves a half-written table behind.
type CSVStore struct {
	dir string
	mu  sync.Mutex
	log *logger.Logger
}

var _ domrepo.HistoryStore = (*CSVStore)(nil)

// NewCSVStore creates the store and ensures the data directory exists.
func NewCSVStore(dir string, log *logger.Logger) (*CSVStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir, log: log}, nil
}

// LoadHistory reads the enriched historical table. A missing file is an empty
// history, not an error.
func (s *CSVStore) LoadHistory(ctx context.Context) ([]models.SessionRow, error) {
	records, cols, err := s.readTable(historyFile)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]models.SessionRow, 0, len(records))
	for i, rec := range records {
		row, err := parseHistoryRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", historyFile, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadIndices reads the index history table.
func (s *CSVStore) LoadIndices(ctx context.Context) ([]models.IndexRow, error) {
	records, cols, err := s.readTable(indexFile)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]models.IndexRow, 0, len(records))
	for i, rec := range records {
		row, err := parseIndexRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", indexFile, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendHistory appends the enriched new-day rows. Dates already present in
// the table are skipped, so re-running a day is a no-op.
func (s *CSVStore) AppendHistory(ctx context.Context, rows []models.SessionRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _, err := s.readTable(historyFile)
	if err != nil {
		return false, err
	}
	have := datesOf(existing, columnIndexOf(historyHeader, "SEANCE"))

	fresh := make([][]string, 0, len(rows))
	for _, r := range rows {
		if have[util.FormatSeance(r.Seance)] {
			continue
		}
		fresh = append(fresh, historyRecord(&r))
	}
	if len(fresh) == 0 {
		s.log.Info("history append skipped, dates already present",
			logger.String("file", historyFile), logger.Int("rows", len(rows)))
		return false, nil
	}
	if err := s.writeTable(historyFile, historyHeader, append(existing, fresh...)); err != nil {
		return false, err
	}
	return true, nil
}

// AppendIndices appends the new session's index extract, skipping dates
// already recorded.
func (s *CSVStore) AppendIndices(ctx context.Context, rows []models.IndexRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _, err := s.readTable(indexFile)
	if err != nil {
		return false, err
	}
	have := datesOf(existing, 0)

	fresh := make([][]string, 0, len(rows))
	for _, r := range rows {
		if have[util.FormatSeance(r.Seance)] {
			continue
		}
		fresh = append(fresh, indexRecord(&r))
	}
	if len(fresh) == 0 {
		s.log.Info("index append skipped, dates already present",
			logger.String("file", indexFile), logger.Int("rows", len(rows)))
		return false, nil
	}
	if err := s.writeTable(indexFile, indexHeader(), append(existing, fresh...)); err != nil {
		return false, err
	}
	return true, nil
}

// AppendSentiment appends per-ticker sentiment aggregates, skipping dates
// already recorded.
func (s *CSVStore) AppendSentiment(ctx context.Context, rows []models.SentimentRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _, err := s.readTable(sentimentFile)
	if err != nil {
		return false, err
	}
	have := datesOf(existing, 1)

	fresh := make([][]string, 0, len(rows))
	for _, r := range rows {
		if have[util.FormatSeance(r.Seance)] {
			continue
		}
		fresh = append(fresh, []string{
			r.Valeur,
			util.FormatSeance(r.Seance),
			formatFloat(r.MeanWeightedSentiment),
			formatFloat(r.ArticleCount),
			formatFloat(r.SentimentIntensity),
		})
	}
	if len(fresh) == 0 {
		s.log.Info("sentiment append skipped, dates already present",
			logger.String("file", sentimentFile), logger.Int("rows", len(rows)))
		return false, nil
	}
	if err := s.writeTable(sentimentFile, sentimentHeader, append(existing, fresh...)); err != nil {
		return false, err
	}
	return true, nil
}

// ReplaceForecast overwrites the forecast table with the run's output.
func (s *CSVStore) ReplaceForecast(ctx context.Context, rows []models.ForecastRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			util.FormatSeance(r.Seance),
			r.Code,
			r.Valeur,
			formatFloat(r.Cloture),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.VarCloture),
			formatFloat(r.VarVolume),
			formatFloat(r.ProbLiquidity),
		})
	}
	return s.writeTable(forecastFile, forecastHeader, records)
}

// readTable returns the data records of a CSV file plus a header-name index.
// (nil, nil, nil) means the file does not exist yet.
func (s *CSVStore) readTable(name string) ([][]string, map[string]int, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	cols := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		cols[h] = i
	}
	return all[1:], cols, nil
}

// writeTable writes header plus records to a temp file and renames it over
// the table.
func (s *CSVStore) writeTable(name string, header []string, records [][]string) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	_ = w.Write(header)
	_ = w.WriteAll(records)
	w.Flush()
	if err := firstErr(w.Error(), tmp.Close()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func datesOf(records [][]string, col int) map[string]bool {
	have := make(map[string]bool, len(records))
	for _, rec := range records {
		if col < len(rec) {
			have[rec[col]] = true
		}
	}
	return have
}

func columnIndexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func historyRecord(r *models.SessionRow) []string {
	return []string{
		util.FormatSeance(r.Seance),
		r.Groupe,
		r.Code,
		r.Valeur,
		formatFloat(r.Ouverture),
		formatFloat(r.Cloture),
		formatFloat(r.PlusBas),
		formatFloat(r.PlusHaut),
		formatFloat(r.QuantiteNegociee),
		formatFloat(r.NbTransaction),
		formatFloat(r.Capitaux),
		formatFloat(r.Variation),
		formatFloat(r.ProbLiquidity),
		formatFloat(r.IndiceJour[models.IdxTUNINDEX]),
		formatFloat(r.IndiceJour[models.IdxTUNINDEX20]),
		formatFloat(r.MeanWeightedSentiment),
		formatFloat(r.ArticleCount),
		formatFloat(r.SentimentIntensity),
		formatFloat(r.DirectionScore),
		formatFloat(r.BreadthScore),
		formatFloat(r.LiquidityScore),
		formatFloat(r.IntensityScore),
		formatFloat(r.NewsScore),
		formatFloat(r.MarketMood),
		formatFloat(r.VolumeZScore),
		strconv.Itoa(r.VolumeAnomaly),
		formatFloat(r.VariationZScore),
		strconv.Itoa(r.VariationAnomaly),
		strconv.Itoa(r.VariationAnomalyPostNews),
		strconv.Itoa(r.VariationAnomalyPreNews),
		strconv.Itoa(r.VolumeAnomalyPostNews),
		strconv.Itoa(r.VolumeAnomalyPreNews),
	}
}

func parseHistoryRecord(rec []string, cols map[string]int) (models.SessionRow, error) {
	var row models.SessionRow
	seance, ok := util.ParseSeance(field(rec, cols, "SEANCE"))
	if !ok {
		return row, fmt.Errorf("bad SEANCE value %q", field(rec, cols, "SEANCE"))
	}
	row.Seance = seance
	row.Groupe = field(rec, cols, "GROUPE")
	row.Code = field(rec, cols, "CODE")
	row.Valeur = field(rec, cols, "VALEUR")

	row.Ouverture = floatField(rec, cols, "OUVERTURE")
	row.Cloture = floatField(rec, cols, "CLOTURE")
	row.PlusBas = floatField(rec, cols, "PLUS_BAS")
	row.PlusHaut = floatField(rec, cols, "PLUS_HAUT")
	row.QuantiteNegociee = floatField(rec, cols, "QUANTITE_NEGOCIEE")
	row.NbTransaction = floatField(rec, cols, "NB_TRANSACTION")
	row.Capitaux = floatField(rec, cols, "CAPITAUX")
	row.Variation = floatField(rec, cols, "VARIATION")
	row.ProbLiquidity = floatField(rec, cols, "PROB_LIQUIDITY")

	row.IndiceJour[models.IdxTUNINDEX] = floatField(rec, cols, "TUNINDEX_INDICE_JOUR")
	row.IndiceJour[models.IdxTUNINDEX20] = floatField(rec, cols, "TUNINDEX20_INDICE_JOUR")

	row.MeanWeightedSentiment = floatField(rec, cols, "Mean_Weighted_Sentiment")
	row.ArticleCount = floatField(rec, cols, "Article_Count")
	row.SentimentIntensity = floatField(rec, cols, "Sentiment_Intensity")

	row.DirectionScore = floatField(rec, cols, "DirectionScore")
	row.BreadthScore = floatField(rec, cols, "BreadthScore")
	row.LiquidityScore = floatField(rec, cols, "LiquidityScore")
	row.IntensityScore = floatField(rec, cols, "IntensityScore")
	row.NewsScore = floatField(rec, cols, "NewsScore")
	row.MarketMood = floatField(rec, cols, "MarketMood")

	row.VolumeZScore = floatField(rec, cols, "volume_z_score")
	row.VolumeAnomaly = intField(rec, cols, "VOLUME_Anomaly")
	row.VariationZScore = floatField(rec, cols, "variation_z_score")
	row.VariationAnomaly = intField(rec, cols, "VARIATION_ANOMALY")
	row.VariationAnomalyPostNews = intField(rec, cols, "VARIATION_ANOMALY_POST_NEWS")
	row.VariationAnomalyPreNews = intField(rec, cols, "VARIATION_ANOMALY_PRE_NEWS")
	row.VolumeAnomalyPostNews = intField(rec, cols, "VOLUME_ANOMALY_POST_NEWS")
	row.VolumeAnomalyPreNews = intField(rec, cols, "VOLUME_ANOMALY_PRE_NEWS")
	return row, nil
}

func indexRecord(r *models.IndexRow) []string {
	rec := make([]string, 0, 1+3*models.NumIndices)
	rec = append(rec, util.FormatSeance(r.Seance))
	for k := 0; k < models.NumIndices; k++ {
		rec = append(rec, formatFloat(r.IndiceJour[k]))
	}
	for k := 0; k < models.NumIndices; k++ {
		rec = append(rec, formatFloat(r.IndiceVeille[k]))
	}
	for k := 0; k < models.NumIndices; k++ {
		rec = append(rec, formatFloat(r.VariationVeille[k]))
	}
	return rec
}

func parseIndexRecord(rec []string, cols map[string]int) (models.IndexRow, error) {
	var row models.IndexRow
	seance, ok := util.ParseSeance(field(rec, cols, "SEANCE"))
	if !ok {
		return row, fmt.Errorf("bad SEANCE value %q", field(rec, cols, "SEANCE"))
	}
	row.Seance = seance
	for k, name := range models.IndexNames {
		row.IndiceJour[k] = floatField(rec, cols, name+"_INDICE_JOUR")
		row.IndiceVeille[k] = floatField(rec, cols, name+"_INDICE_VEILLE")
		row.VariationVeille[k] = floatField(rec, cols, name+"_VARIATION_VEILLE")
	}
	return row, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func floatField(rec []string, cols map[string]int, name string) float64 {
	raw := field(rec, cols, name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func intField(rec []string, cols map[string]int, name string) int {
	raw := field(rec, cols, name)
	if raw == "" {
		return 0
	}
	// Anomaly flags may round-trip through a float formatter.
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
