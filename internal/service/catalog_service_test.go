package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fablestreet/marketsim/internal/domain"
)

func TestGenerateStocks(t *testing.T) {
	completer := &stubCompleter{reply: "```json\n[\n" +
		`{"ticker":"NVX","name":"Novex Labs","price":120,"previousDayPrice":115,"priceChange":999,"volatility":12,"sector":"Technology","tidbit":"Founded in a garage."},` +
		`{"ticker":"HLM","name":"Helm Maritime","price":45,"previousDayPrice":44,"volatility":6}` +
		"\n]\n```"}
	svc := NewCatalogService(domain.ExpertProfile(), completer, testLogger())

	stocks, err := svc.GenerateStocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(stocks))
	}
	if stocks[0].Ticker != "NVX" || stocks[0].Sector != domain.SectorTechnology {
		t.Errorf("first stock mangled: %+v", stocks[0])
	}
	want := (120.0 - 115.0) / 115.0 * 100
	if got := stocks[0].PriceChange; got != want {
		t.Errorf("expected recomputed priceChange %f, got %f", want, got)
	}
}

func TestGenerateStocksPartialCatalogSurvives(t *testing.T) {
	completer := &stubCompleter{reply: `[
		{"ticker":"NVX","name":"Novex Labs","price":120,"previousDayPrice":115,"volatility":12},
		{"ticker":"bad ticker","name":"Broken","price":10,"previousDayPrice":10,"volatility":1},
		{"ticker":"HLM","name":"Helm Maritime","price":45,"previousDayPrice":-3,"volatility":6}
	]`}
	svc := NewCatalogService(domain.CasualProfile(), completer, testLogger())

	stocks, err := svc.GenerateStocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stocks) != 1 || stocks[0].Ticker != "NVX" {
		t.Fatalf("expected only NVX to survive, got %+v", stocks)
	}
}

func TestGenerateStocksRejectedCatalog(t *testing.T) {
	completer := &stubCompleter{reply: `{"oops": "not an array"}`}
	svc := NewCatalogService(domain.ExpertProfile(), completer, testLogger())

	_, err := svc.GenerateStocks(context.Background())
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerateStocksUpstreamError(t *testing.T) {
	completer := &stubCompleter{err: fmt.Errorf("openai: complete: %w", domain.ErrUpstream)}
	svc := NewCatalogService(domain.ExpertProfile(), completer, testLogger())

	_, err := svc.GenerateStocks(context.Background())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
	if errors.Is(err, domain.ErrGeneration) {
		t.Errorf("upstream failure must not masquerade as generation failure: %v", err)
	}
}
