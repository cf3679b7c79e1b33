package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/crypto_scale_engine/internal/domain"
	"github.com/vitos/crypto_scale_engine/internal/usecase"
)

// Offline scoring utility: feed it a JSON document with the three
// timeframe payloads, get the analysis and recommendation back.
//
//	{
//	  "symbol": "BTCUSDT",
//	  "short_term":  {"long_win_rate": 82, "short_win_rate": 40, "confidence": 0.8},
//	  "medium_term": {"long_win_rate": 75, "short_win_rate": 50, "confidence": 0.7},
//	  "long_term":   {"long_win_rate": 60, "short_win_rate": 55, "confidence": 0.6}
//	}
type input struct {
	Symbol     string                `json:"symbol"`
	ShortTerm  *domain.TimeframeData `json:"short_term"`
	MediumTerm *domain.TimeframeData `json:"medium_term"`
	LongTerm   *domain.TimeframeData `json:"long_term"`
}

func main() {
	inputPath := flag.String("input", "", "path to timeframe inputs JSON (default: stdin)")
	flag.Parse()

	reader := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		reader = f
	}

	var in input
	if err := json.NewDecoder(reader).Decode(&in); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse input: %v\n", err)
		os.Exit(1)
	}

	scorer := usecase.NewWinRateScorer(usecase.DefaultConfig())
	analysis, err := scorer.MultiTimeframe(in.Symbol, in.ShortTerm, in.MediumTerm, in.LongTerm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
		os.Exit(1)
	}

	out := map[string]any{
		"analysis":       analysis,
		"recommendation": scorer.TradingRecommendations(analysis),
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
