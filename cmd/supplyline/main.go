package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"supplyline/internal/agent"
	"supplyline/internal/aggregate"
	"supplyline/internal/config"
	"supplyline/internal/ingest"
	"supplyline/internal/llm"
	"supplyline/internal/model"
)

// One-shot runner: parse a dataset file, print its metrics and
// aggregates, and optionally drive the configured agent pipeline over
// the data.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dataFile := flag.String("data", "", "delimited dataset file")
	agentsFile := flag.String("agents", "", "agents configuration file")
	topN := flag.Int("top", 5, "top-N bound for category aggregation")
	runAgents := flag.Bool("run", false, "run the agent pipeline after parsing")
	flag.Parse()

	if *dataFile == "" {
		log.Fatal().Msg("-data is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	raw, err := os.ReadFile(*dataFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", *dataFile).Msg("failed to read dataset")
	}
	records, metrics, err := ingest.Parse(string(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse dataset")
	}

	view := aggregate.View{
		Records:       records,
		Trend:         aggregate.Trend(records),
		TopCategories: aggregate.TopCategories(records, *topN),
	}
	printJSON(map[string]interface{}{"metrics": metrics, "trend": view.Trend, "topCategories": view.TopCategories})

	if !*runAgents {
		return
	}
	if *agentsFile == "" {
		log.Fatal().Msg("-agents is required with -run")
	}

	configText, err := os.ReadFile(*agentsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", *agentsFile).Msg("failed to read agents configuration")
	}
	pipeline, err := agent.ParseConfig(string(configText))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse agents configuration")
	}

	skillDoc, err := cfg.SkillDoc()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read skill document")
	}

	env := agent.Env{
		Snapshot:   aggregate.BuildSnapshot(metrics, records, *topN),
		SkillDoc:   skillDoc,
		Credential: cfg.OpenAIKey,
		Caller:     &llm.OpenAICaller{BaseURL: cfg.OpenAIBaseURL},
	}

	pipeline, runErr := agent.RunAll(context.Background(), pipeline, env)
	for _, step := range pipeline.Steps {
		fmt.Printf("== %s (%s)\n", stepTitle(step), step.Status)
		if step.Output != "" {
			fmt.Println(step.Output)
		}
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("pipeline run halted")
	}
}

func stepTitle(step model.Step) string {
	if step.Name != "" {
		return step.Name
	}
	return step.ID
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
	fmt.Println(string(data))
}
