package analyzer

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadDictionary reads keyword tables from a YAML or JSON file.
// Sections absent from the file keep the built-in values.
func LoadDictionary(path string) (*Dictionary, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}

	dict := &Dictionary{}
	if err := v.Unmarshal(dict); err != nil {
		return nil, fmt.Errorf("decode dictionary %s: %w", path, err)
	}

	dict.merge(DefaultDictionary())

	return dict, nil
}
