package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ModelSettings struct {
		Temperature     float64 `yaml:"temperature"`
		ChatTemperature float64 `yaml:"chat_temperature"`
	} `yaml:"model_settings"`
	Chat struct {
		Enabled               bool    `yaml:"enabled"`
		Probability           float64 `yaml:"probability"`
		HistoryLimit          int     `yaml:"history_limit"`
		SessionTimeoutSeconds int     `yaml:"session_timeout_seconds"`
		TurnBudget            int     `yaml:"turn_budget"`
	} `yaml:"chat"`
	Stream struct {
		FlushChars           int     `yaml:"flush_chars"`
		FlushIntervalSeconds float64 `yaml:"flush_interval_seconds"`
	} `yaml:"stream"`
	Investigate struct {
		Enabled        bool `yaml:"enabled"`
		TimeoutSeconds int  `yaml:"timeout_seconds"`
	} `yaml:"investigate"`
	Lexicon struct {
		ClassifiedPath    string `yaml:"classified_path"`
		MergedPath        string `yaml:"merged_path"`
		KnowledgeBasePath string `yaml:"knowledge_base_path"`
		RawLexiconPath    string `yaml:"raw_lexicon_path"`
		PromptGuidePath   string `yaml:"prompt_guide_path"`
	} `yaml:"lexicon"`
}

func defaults() *Config {
	config := &Config{}
	config.ModelSettings.Temperature = 1
	config.ModelSettings.ChatTemperature = 0.9
	config.Chat.Enabled = false
	config.Chat.Probability = 0.15
	config.Chat.HistoryLimit = 8
	config.Chat.SessionTimeoutSeconds = 180
	config.Chat.TurnBudget = 2
	config.Stream.FlushChars = 30
	config.Stream.FlushIntervalSeconds = 1.5
	config.Investigate.Enabled = true
	config.Investigate.TimeoutSeconds = 120
	config.Lexicon.ClassifiedPath = "classified_lexicon.json"
	config.Lexicon.MergedPath = "merged_knowledge_base.json"
	config.Lexicon.KnowledgeBasePath = "knowledge_base.json"
	config.Lexicon.RawLexiconPath = "lexicon.json"
	config.Lexicon.PromptGuidePath = "prompt_guide.txt"
	return config
}

// LoadConfig reads config.yml. A missing file yields the defaults; a present
// but unreadable or malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	config := defaults()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
