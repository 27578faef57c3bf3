package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fablestreet/marketsim/internal/domain"
)

type stubCatalog struct {
	stocks []domain.Stock
	err    error
}

func (s *stubCatalog) GenerateStocks(ctx context.Context) ([]domain.Stock, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stocks, nil
}

type stubSimulator struct {
	result domain.SimulationResult
	err    error
	gotReq domain.SimulationRequest
}

func (s *stubSimulator) SimulateDays(ctx context.Context, req domain.SimulationRequest) (domain.SimulationResult, error) {
	s.gotReq = req
	if s.err != nil {
		return domain.SimulationResult{}, s.err
	}
	return s.result, nil
}

type stubPredictor struct {
	news    domain.Prediction
	newsErr error
	econ    domain.PredictedEconEvent
	econErr error
}

func (s *stubPredictor) PredictNews(ctx context.Context, stocks []domain.Stock, currentDay int) (domain.Prediction, error) {
	if s.newsErr != nil {
		return domain.Prediction{}, s.newsErr
	}
	return s.news, nil
}

func (s *stubPredictor) PredictEconEvent(ctx context.Context, active []domain.EconEvent, currentDay int) (domain.PredictedEconEvent, error) {
	if s.econErr != nil {
		return domain.PredictedEconEvent{}, s.econErr
	}
	return s.econ, nil
}

type stubAnalyzer struct {
	reply     string
	err       error
	gotLog    domain.GameLog
	gotBudget float64
}

func (s *stubAnalyzer) AnalyzePerformance(ctx context.Context, log domain.GameLog, portfolio map[string]any, budget float64) (string, error) {
	s.gotLog = log
	s.gotBudget = budget
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubHistory struct {
	batches  []domain.SimulationBatch
	ticks    []domain.SimulationTick
	err      error
	gotLimit int
}

func (s *stubHistory) RecentBatches(ctx context.Context, limit int) ([]domain.SimulationBatch, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.batches, nil
}

func (s *stubHistory) BatchTicks(ctx context.Context, batchID string) ([]domain.SimulationTick, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ticks, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postJSON(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func getJSON(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status=%d want %d body=%s", rr.Code, want, rr.Body.String())
	}
}

func wantErrorBody(t *testing.T, rr *httptest.ResponseRecorder, msg string) {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != msg {
		t.Fatalf("error=%q want %q", body["error"], msg)
	}
}

func TestGenerateCatalogReturnsStocks(t *testing.T) {
	svc := &stubCatalog{stocks: []domain.Stock{
		{Ticker: "ABC", Name: "Arc Bionics", Price: 100, PreviousDayPrice: 98, PriceChange: 2.04, Volatility: 5, Sector: domain.SectorHealthcare},
		{Ticker: "QRS", Name: "Quartz Rail Systems", Price: 50, PreviousDayPrice: 52, PriceChange: -3.85, Volatility: 8, Sector: domain.SectorUtilities},
	}}
	h := NewStocksHandler(svc, testLogger())

	rr := getJSON(t, h.GenerateCatalog, "/stocks")
	wantStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}

	var stocks []domain.Stock
	if err := json.Unmarshal(rr.Body.Bytes(), &stocks); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(stocks) != 2 || stocks[0].Ticker != "ABC" || stocks[1].Sector != domain.SectorUtilities {
		t.Fatalf("unexpected catalog: %+v", stocks)
	}
}

func TestGenerateCatalogFailure(t *testing.T) {
	svc := &stubCatalog{err: fmt.Errorf("catalog_service: generate stocks: %w", domain.ErrGeneration)}
	h := NewStocksHandler(svc, testLogger())

	rr := getJSON(t, h.GenerateCatalog, "/stocks")
	wantStatus(t, rr, http.StatusInternalServerError)
	wantErrorBody(t, rr, "Error generating stock data")
}

func TestSimulateDaysReturnsResult(t *testing.T) {
	svc := &stubSimulator{result: domain.SimulationResult{
		Simulated: []domain.SimulationTick{
			{Ticker: "ABC", Day: 6, Price: 101.5, PreviousDayPrice: 100, PriceChange: 1.5, Volatility: 5, Headline: "Routine Session for Arc Bionics"},
		},
		NewEconEvents: []domain.EconEvent{},
	}}
	h := NewSimulationHandler(svc, testLogger())

	body := `{"stocks":[{"ticker":"ABC","name":"Arc Bionics","price":100,"previousDayPrice":98,"priceChange":2.04,"volatility":5}],"days":1,"currentDay":5}`
	rr := postJSON(t, h.SimulateDays, "/simulateDays", body)
	wantStatus(t, rr, http.StatusOK)

	if svc.gotReq.Days != 1 || svc.gotReq.CurrentDay != 5 || len(svc.gotReq.Stocks) != 1 {
		t.Fatalf("service saw request %+v", svc.gotReq)
	}

	var result domain.SimulationResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(result.Simulated) != 1 || result.Simulated[0].Day != 6 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(rr.Body.String(), `"newEconEvents":[]`) {
		t.Fatalf("empty event list should serialize as [], body=%s", rr.Body.String())
	}
}

func TestSimulateDaysRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"stocks":`},
		{"missing stocks", `{"days":1,"currentDay":5}`},
		{"empty stocks", `{"stocks":[],"days":1,"currentDay":5}`},
		{"missing days", `{"stocks":[{"ticker":"ABC"}],"currentDay":5}`},
		{"missing currentDay", `{"stocks":[{"ticker":"ABC"}],"days":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubSimulator{}
			h := NewSimulationHandler(svc, testLogger())

			rr := postJSON(t, h.SimulateDays, "/simulateDays", tc.body)
			wantStatus(t, rr, http.StatusBadRequest)
			wantErrorBody(t, rr, "Invalid input")
		})
	}
}

func TestSimulateDaysMapsServiceErrors(t *testing.T) {
	invalid := &stubSimulator{err: fmt.Errorf("market_service: %w", domain.ErrInvalidInput)}
	h := NewSimulationHandler(invalid, testLogger())
	rr := postJSON(t, h.SimulateDays, "/simulateDays", `{"stocks":[{"ticker":"ABC"}],"days":200,"currentDay":5}`)
	wantStatus(t, rr, http.StatusBadRequest)
	wantErrorBody(t, rr, "Invalid input")

	broken := &stubSimulator{err: errors.New("cache exploded")}
	h = NewSimulationHandler(broken, testLogger())
	rr = postJSON(t, h.SimulateDays, "/simulateDays", `{"stocks":[{"ticker":"ABC"}],"days":1,"currentDay":5}`)
	wantStatus(t, rr, http.StatusInternalServerError)
	wantErrorBody(t, rr, "Error simulating days")
}

func TestPredictNewsReturnsPrediction(t *testing.T) {
	svc := &stubPredictor{news: domain.Prediction{Ticker: "ABC", Day: 7, Direction: domain.PredictionRise}}
	h := NewPredictionHandler(svc, testLogger())

	rr := postJSON(t, h.PredictNews, "/predictNews", `{"stocks":[{"ticker":"ABC"}],"currentDay":5}`)
	wantStatus(t, rr, http.StatusOK)

	var pred domain.Prediction
	if err := json.Unmarshal(rr.Body.Bytes(), &pred); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if pred.Ticker != "ABC" || pred.Day != 7 || pred.Direction != domain.PredictionRise {
		t.Fatalf("unexpected prediction: %+v", pred)
	}
}

func TestPredictNewsRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing stocks", `{"currentDay":5}`},
		{"missing currentDay", `{"stocks":[{"ticker":"ABC"}]}`},
		{"malformed json", `{"stocks"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPredictionHandler(&stubPredictor{}, testLogger())
			rr := postJSON(t, h.PredictNews, "/predictNews", tc.body)
			wantStatus(t, rr, http.StatusBadRequest)
			wantErrorBody(t, rr, "Invalid input")
		})
	}
}

func TestPredictNewsUpstreamFailure(t *testing.T) {
	svc := &stubPredictor{newsErr: fmt.Errorf("prediction_service: %w", domain.ErrUpstream)}
	h := NewPredictionHandler(svc, testLogger())

	rr := postJSON(t, h.PredictNews, "/predictNews", `{"stocks":[{"ticker":"ABC"}],"currentDay":5}`)
	wantStatus(t, rr, http.StatusInternalServerError)
	wantErrorBody(t, rr, "Error predicting news")
}

func TestPredictEconEvent(t *testing.T) {
	svc := &stubPredictor{econ: domain.PredictedEconEvent{
		Sector:    domain.SectorEnergy,
		Headline:  "Power Grid Strain in the Energy Sector",
		DaysLeft:  4,
		StartDay:  13,
		Direction: domain.EventNegative,
		Day:       13,
	}}
	h := NewPredictionHandler(svc, testLogger())

	rr := postJSON(t, h.PredictEconEvent, "/predictEconEvent", `{"currentDay":7,"activeEconEffects":[]}`)
	wantStatus(t, rr, http.StatusOK)

	var pred domain.PredictedEconEvent
	if err := json.Unmarshal(rr.Body.Bytes(), &pred); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if pred.Sector != domain.SectorEnergy || pred.Day != 13 {
		t.Fatalf("unexpected forecast: %+v", pred)
	}

	rr = postJSON(t, h.PredictEconEvent, "/predictEconEvent", `{"activeEconEffects":[]}`)
	wantStatus(t, rr, http.StatusBadRequest)
	wantErrorBody(t, rr, "Invalid input")
}

func TestAnalyzePerformance(t *testing.T) {
	svc := &stubAnalyzer{reply: "Strong week. You held through the dip."}
	h := NewAnalysisHandler(svc, testLogger())

	body := `{"log":[{"action":"buy","ticker":"ABC"},{"action":"sell","ticker":"ABC"}],"portfolio":{"ABC":10},"budget":2500.5}`
	rr := postJSON(t, h.AnalyzePerformance, "/analyzePerformance", body)
	wantStatus(t, rr, http.StatusOK)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp["analysis"] != "Strong week. You held through the dip." {
		t.Fatalf("analysis=%q", resp["analysis"])
	}
	if len(svc.gotLog) != 2 || svc.gotBudget != 2500.5 {
		t.Fatalf("service saw log=%d budget=%v", len(svc.gotLog), svc.gotBudget)
	}
}

func TestAnalyzePerformanceAcceptsStringLog(t *testing.T) {
	svc := &stubAnalyzer{reply: "ok"}
	h := NewAnalysisHandler(svc, testLogger())

	body := `{"log":"[{\"action\":\"buy\"},{\"action\":\"hold\"}]","portfolio":{},"budget":1000}`
	rr := postJSON(t, h.AnalyzePerformance, "/analyzePerformance", body)
	wantStatus(t, rr, http.StatusOK)
	if len(svc.gotLog) != 2 {
		t.Fatalf("string-encoded log should decode to 2 entries, got %d", len(svc.gotLog))
	}
}

func TestAnalyzePerformanceRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing log", `{"portfolio":{},"budget":1000}`},
		{"null log", `{"log":null,"portfolio":{},"budget":1000}`},
		{"log not an array", `{"log":"not json","portfolio":{},"budget":1000}`},
		{"missing portfolio", `{"log":[],"budget":1000}`},
		{"missing budget", `{"log":[],"portfolio":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAnalysisHandler(&stubAnalyzer{}, testLogger())
			rr := postJSON(t, h.AnalyzePerformance, "/analyzePerformance", tc.body)
			wantStatus(t, rr, http.StatusBadRequest)
			wantErrorBody(t, rr, "Invalid input")
		})
	}
}

func TestAnalyzePerformanceUpstreamFailure(t *testing.T) {
	svc := &stubAnalyzer{err: fmt.Errorf("analysis_service: %w", domain.ErrUpstream)}
	h := NewAnalysisHandler(svc, testLogger())

	rr := postJSON(t, h.AnalyzePerformance, "/analyzePerformance", `{"log":[],"portfolio":{},"budget":100}`)
	wantStatus(t, rr, http.StatusInternalServerError)
	wantErrorBody(t, rr, "Error analyzing performance")
}

func TestListBatches(t *testing.T) {
	svc := &stubHistory{batches: []domain.SimulationBatch{
		{ID: "b1", Profile: "expert", Days: 3, Source: domain.SourceLLM, TickCount: 6},
	}}
	h := NewHistoryHandler(svc, testLogger())

	rr := getJSON(t, h.ListBatches, "/api/history?limit=10")
	wantStatus(t, rr, http.StatusOK)
	if svc.gotLimit != 10 {
		t.Fatalf("limit=%d want 10", svc.gotLimit)
	}

	var resp listBatchesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Batches) != 1 || resp.Batches[0].Source != domain.SourceLLM {
		t.Fatalf("unexpected batches: %+v", resp.Batches)
	}
}

func TestListBatchesDefaultsAndEmpty(t *testing.T) {
	svc := &stubHistory{}
	h := NewHistoryHandler(svc, testLogger())

	rr := getJSON(t, h.ListBatches, "/api/history")
	wantStatus(t, rr, http.StatusOK)
	if svc.gotLimit != 50 {
		t.Fatalf("default limit=%d want 50", svc.gotLimit)
	}
	if !strings.Contains(rr.Body.String(), `"batches":[]`) {
		t.Fatalf("nil batches should serialize as [], body=%s", rr.Body.String())
	}
}

func TestListBatchesWhenHistoryDisabled(t *testing.T) {
	svc := &stubHistory{err: fmt.Errorf("market_service: %w", domain.ErrNotFound)}
	h := NewHistoryHandler(svc, testLogger())

	rr := getJSON(t, h.ListBatches, "/api/history")
	wantStatus(t, rr, http.StatusNotFound)
	wantErrorBody(t, rr, "history not enabled")
}

func TestGetBatchTicks(t *testing.T) {
	svc := &stubHistory{ticks: []domain.SimulationTick{
		{Ticker: "ABC", Day: 6, Price: 101.5},
		{Ticker: "QRS", Day: 6, Price: 49.2},
	}}
	h := NewHistoryHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/history/b1", nil)
	req.SetPathValue("id", "b1")
	rr := httptest.NewRecorder()
	h.GetBatchTicks(rr, req)
	wantStatus(t, rr, http.StatusOK)

	var ticks []domain.SimulationTick
	if err := json.Unmarshal(rr.Body.Bytes(), &ticks); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(ticks) != 2 || ticks[1].Ticker != "QRS" {
		t.Fatalf("unexpected ticks: %+v", ticks)
	}
}

func TestGetBatchTicksNotFound(t *testing.T) {
	svc := &stubHistory{err: fmt.Errorf("market_service: batch b9: %w", domain.ErrNotFound)}
	h := NewHistoryHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/history/b9", nil)
	req.SetPathValue("id", "b9")
	rr := httptest.NewRecorder()
	h.GetBatchTicks(rr, req)
	wantStatus(t, rr, http.StatusNotFound)
	wantErrorBody(t, rr, "batch not found")
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(testLogger())

	rr := getJSON(t, h.HealthCheck, "/api/health")
	wantStatus(t, rr, http.StatusOK)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["timestamp"] == "" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

type stubForecast struct {
	pred *domain.PredictedEconEvent
}

func (s *stubForecast) PredictedEvent() *domain.PredictedEconEvent { return s.pred }

func TestGetStatusIncludesForecast(t *testing.T) {
	forecast := &stubForecast{pred: &domain.PredictedEconEvent{
		Sector: domain.SectorFinance,
		Day:    21,
	}}
	h := NewStatusHandler("expert", forecast, nil)

	rr := getJSON(t, h.GetStatus, "/api/status")
	wantStatus(t, rr, http.StatusOK)

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["profile"] != "expert" {
		t.Fatalf("profile=%v", body["profile"])
	}
	pred, ok := body["predictedEvent"].(map[string]any)
	if !ok {
		t.Fatalf("predictedEvent missing: %v", body)
	}
	if pred["sector"] != "Finance" || pred["day"] != float64(21) {
		t.Fatalf("unexpected forecast: %v", pred)
	}
	if _, ok := body["feedClients"]; ok {
		t.Fatalf("feedClients should be absent without a feed")
	}
}
