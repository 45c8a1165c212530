package am

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/qntx-signal/errors"
)

// UnknownKeys decodes configPath strictly and returns keys that do not map
// onto Config, sorted. Viper silently ignores these, so `am validate` uses
// this to catch typos such as "decoder.timout_seconds".
func UnknownKeys(configPath string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(configPath, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}

	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys, nil
}
