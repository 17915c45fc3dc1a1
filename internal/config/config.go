// Package config holds the runtime configuration for the QMS parser:
// the set token, the admin code table, and the ordered classification
// categories. Defaults are compiled in; a YAML file can override any part.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is one classification bucket: a display name, its emoji, and the
// keywords that select it. Categories are matched in declared order and the
// first match wins, so the slice order is part of the configuration.
type Category struct {
	Name     string   `yaml:"name"`
	Emoji    string   `yaml:"emoji"`
	Keywords []string `yaml:"keywords"`
}

// Config is the full runtime configuration.
type Config struct {
	// Set is the top-level grouping token used in question IDs.
	Set string `yaml:"set"`
	// AdminCodes maps an author's base name to their admin code.
	AdminCodes map[string]string `yaml:"admin_codes"`
	// FallbackAdminCode is used for authors missing from AdminCodes.
	FallbackAdminCode string `yaml:"fallback_admin_code"`
	// Topics and Types are ordered priority lists, earlier entries shadow
	// later ones on overlapping keywords.
	Topics []Category `yaml:"topics"`
	Types  []Category `yaml:"types"`
	// SimilarityThreshold flags a question for review when its text overlap
	// with an existing question reaches this ratio.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// Default returns the stock QMS configuration.
func Default() Config {
	return Config{
		Set:               "S1",
		AdminCodes:        map[string]string{"Tye": "A01", "Lois": "A02"},
		FallbackAdminCode: "A00",
		Topics: []Category{
			{Name: "QBO", Emoji: "📚", Keywords: []string{"quickbooks", "qbo", "invoice", "bill", "reconcile", "bank feed", "transaction", "vendor", "customer"}},
			{Name: "Excel", Emoji: "📊", Keywords: []string{"excel", "spreadsheet", "formula", "calculation", "worksheet", "cell", "pivot"}},
			{Name: "Bkpg/Actg", Emoji: "💰", Keywords: []string{"journal entry", "debit", "credit", "balance", "account", "ledger", "reconciliation"}},
			{Name: "Vocab/Terms", Emoji: "📖", Keywords: []string{"define", "what is", "term", "meaning", "definition", "explain term"}},
			{Name: "TGB Internal", Emoji: "⚙️", Keywords: []string{"process", "internal", "tgb", "procedure", "policy", "workflow"}},
			{Name: "PBS", Emoji: "🏢", Keywords: []string{"pbs", "review", "checklist", "month end", "verification"}},
			{Name: "Client", Emoji: "👥", Keywords: []string{"cwp", "bd", "avc", "client", "customer specific"}},
		},
		Types: []Category{
			{Name: "Sequential", Emoji: "1️⃣", Keywords: []string{"next step", "following", "sequence", "first", "then", "after"}},
			{Name: "Multiple Choice", Emoji: "📝", Keywords: []string{"choose", "select", "which of the following", "options"}},
			{Name: "True/False", Emoji: "✅", Keywords: []string{"true or false", "true/false", "t/f"}},
			{Name: "Fill in Blank", Emoji: "⬜", Keywords: []string{"fill in", "complete", "enter the"}},
			{Name: "Excel Exercise", Emoji: "📊", Keywords: []string{"excel", "spreadsheet", "formula", "calculate"}},
			{Name: "Short Answer", Emoji: "✍️", Keywords: []string{"explain", "describe", "how do you", "what is", "why"}},
		},
		SimilarityThreshold: 0.8,
	}
}

// Load reads a YAML file and overlays it on the defaults. Only the sections
// present in the file replace their defaults; an empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if file.Set != "" {
		cfg.Set = file.Set
	}
	if len(file.AdminCodes) > 0 {
		cfg.AdminCodes = file.AdminCodes
	}
	if file.FallbackAdminCode != "" {
		cfg.FallbackAdminCode = file.FallbackAdminCode
	}
	if len(file.Topics) > 0 {
		cfg.Topics = file.Topics
	}
	if len(file.Types) > 0 {
		cfg.Types = file.Types
	}
	if file.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = file.SimilarityThreshold
	}

	return cfg, nil
}
