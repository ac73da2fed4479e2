package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// readInput loads a YAML or JSON file; the format follows the extension.
func readInput(path string) (*viper.Viper, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("input file is required")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

// decodeInput decodes the value under key, or the whole file when key is
// empty, into out. Field names follow the json tags of the target types.
func decodeInput(path, key string, out any) error {
	v, err := readInput(path)
	if err != nil {
		return err
	}

	var raw any = v.AllSettings()
	if key != "" {
		if !v.IsSet(key) {
			return fmt.Errorf("%s: missing %q", path, key)
		}
		raw = v.Get(key)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       boolToStringHook,
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// boolToStringHook keeps unquoted YAML booleans readable as "true"/"false";
// weak decoding would turn them into "1"/"0".
func boolToStringHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.Bool && to.Kind() == reflect.String {
		return strconv.FormatBool(data.(bool)), nil
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}
