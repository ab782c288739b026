package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anime-shed/ai-image-inspector-go/internal/signature"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
	"github.com/fatih/color"
)

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

type printer struct {
	w       io.Writer
	json    bool
	verbose bool
}

func newPrinter(w io.Writer, jsonOut, verbose bool) *printer {
	return &printer{w: w, json: jsonOut, verbose: verbose}
}

func (p *printer) line(tag, format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func (p *printer) Info(format string, args ...interface{}) {
	p.line(infoColor("[*]"), format, args...)
}

func (p *printer) Error(format string, args ...interface{}) {
	p.line(errorColor("[-]"), format, args...)
}

// Result prints one verdict, either as a JSON document per line or as a
// colored summary.
func (p *printer) Result(target string, result *models.AnalysisResult) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetEscapeHTML(false)
		return enc.Encode(struct {
			Target string `json:"target"`
			*models.AnalysisResult
		}{target, result})
	}

	fmt.Fprintf(p.w, "\n--- %s ---\n", target)
	switch result.Label {
	case models.LabelLikelyAI:
		p.line(alertColor("[!!!]"), "%s (score %.3f)", result.Label, result.Score)
	case models.LabelPossiblyAI:
		p.line(warningColor("[!]"), "%s (score %.3f)", result.Label, result.Score)
	default:
		p.line(successColor("[+]"), "%s (score %.3f)", result.Label, result.Score)
	}

	for _, reason := range result.Reasons {
		tag := infoColor("   -")
		if strings.HasPrefix(reason, signature.ReasonPrefix) {
			tag = alertColor("   -")
		}
		fmt.Fprintf(p.w, "%s %s\n", tag, reason)
	}

	m := result.Metrics
	p.Info("blockiness=%.4f noise_estimate=%.4f hist_entropy=%.4f", m.Blockiness, m.NoiseEstimate, m.HistEntropy)

	if p.verbose && result.Metadata != nil {
		doc, err := json.MarshalIndent(result.Metadata, "    ", "  ")
		if err != nil {
			return err
		}
		p.Info("metadata:\n    %s", doc)
	}
	return nil
}
