package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/backfill"
	"github.com/formsense/formsense/internal/config"
	"github.com/formsense/formsense/internal/layout"
	"github.com/formsense/formsense/internal/mapper"
	"github.com/formsense/formsense/internal/pdfdoc"
	"github.com/formsense/formsense/internal/synth"
)

var (
	version = "dev" // This will be set by build flags
)

func main() {
	cfg, args, err := config.LoadFromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: command required (analyze, synthesize, backfill, map)\n")
		os.Exit(1)
	}

	command, args := args[0], args[1:]
	switch command {
	case "analyze":
		err = runAnalyze(cfg, args)
	case "synthesize":
		err = runSynthesize(cfg, args)
	case "backfill":
		err = runBackfill(cfg, args)
	case "map":
		err = runMap(cfg, args)
	case "version":
		fmt.Printf("formsense %s\n", version)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging routes logs to stderr so stdout stays parseable JSON
func setupLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func runAnalyze(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: formsense analyze <file.pdf>")
	}

	doc, err := readDocument(args[0], cfg.MaxFileSize)
	if err != nil {
		return err
	}

	analyzer := layout.NewAnalyzer(pdfdoc.NewExtractor(cfg.MaxFileSize))
	analysis := analyzer.Analyze(doc)

	logrus.WithFields(logrus.Fields{
		"pages":  analysis.PageCount,
		"fields": len(analysis.Fields),
	}).Info("analysis complete")

	return outputJSON(analysis)
}

func runSynthesize(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: formsense synthesize <input.pdf> <output.pdf>")
	}

	doc, err := readDocument(args[0], cfg.MaxFileSize)
	if err != nil {
		return err
	}

	analyzer := layout.NewAnalyzer(pdfdoc.NewExtractor(cfg.MaxFileSize))
	analysis := analyzer.Analyze(doc)
	if len(analysis.Fields) == 0 {
		return fmt.Errorf("no fillable areas detected in %s", args[0])
	}

	synthesizer := synth.NewSynthesizer(pdfdoc.NewAuthor())
	out, created, err := synthesizer.SynthesizeBytes(doc, analysis.Fields)
	if err != nil {
		return fmt.Errorf("failed to synthesize fields: %w", err)
	}

	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[1], err)
	}

	logrus.WithFields(logrus.Fields{
		"detected": len(analysis.Fields),
		"created":  len(created),
		"output":   args[1],
	}).Info("synthesis complete")

	return outputJSON(created)
}

func runBackfill(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: formsense backfill <file.pdf>")
	}

	doc, err := readDocument(args[0], cfg.MaxFileSize)
	if err != nil {
		return err
	}

	backfiller := backfill.NewBackfiller(pdfdoc.NewExtractor(cfg.MaxFileSize))
	labeled, err := backfiller.Backfill(doc)
	if err != nil {
		return fmt.Errorf("failed to read form fields: %w", err)
	}

	logrus.WithField("fields", len(labeled)).Info("backfill complete")

	return outputJSON(labeled)
}

func runMap(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: formsense map <file.pdf> <data.json>")
	}

	doc, err := readDocument(args[0], cfg.MaxFileSize)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[1], err)
	}

	backfiller := backfill.NewBackfiller(pdfdoc.NewExtractor(cfg.MaxFileSize))
	labeled, err := backfiller.Backfill(doc)
	if err != nil {
		return fmt.Errorf("failed to read form fields: %w", err)
	}

	targets := make([]mapper.TargetField, 0, len(labeled))
	for _, f := range labeled {
		targets = append(targets, mapper.TargetField{
			Name:     f.Name,
			Label:    f.Label,
			Kind:     f.Kind,
			Required: f.Required,
		})
	}

	m := mapper.NewMapper(cfg.MapperSettings)
	mappings := m.Map(context.Background(), data, targets)

	logrus.WithFields(logrus.Fields{
		"data_keys": len(data),
		"targets":   len(targets),
		"mappings":  len(mappings),
	}).Info("mapping complete")

	return outputJSON(mappings)
}

func readDocument(path string, maxFileSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%s exceeds maximum file size (%d bytes)", path, maxFileSize)
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return doc, nil
}

func outputJSON(result interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
