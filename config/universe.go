package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultUniverse is used when no universe file is configured.
var defaultUniverse = []string{"AAPL", "MSFT", "NVDA", "AMZN", "TSLA"}

type universeFile struct {
	Tickers []string `yaml:"tickers"`
}

// LoadUniverse reads the ticker universe from a YAML file. An empty path
// returns the built-in default list.
func LoadUniverse(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), defaultUniverse...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var uf universeFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}

	seen := make(map[string]bool)
	tickers := make([]string, 0, len(uf.Tickers))
	for _, t := range uf.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe file %s lists no tickers", path)
	}
	return tickers, nil
}
