package pwhash

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash/kdf"
)

// EnvPrefix prefixes every environment override, e.g.
// PWHASH_PASSWORD_PRESET=moderate or PWHASH_RESOURCES_MEMORY_BUDGET=2GiB.
const EnvPrefix = "PWHASH_"

// LoadConfig starts from DefaultConfig, overlays the YAML file at path (if
// path is non-empty) and then PWHASH_* environment variables, and validates
// the result.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s failed", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToMemLimitHook(),
			),
		},
	}); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config failed")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envSections are the top-level config keys. The first underscore after one
// of them separates section from field; the rest stay in the field name.
var envSections = []string{"password", "resources", "audit", "metrics", "log"}

func envKey(raw string) string {
	key := strings.ToLower(strings.TrimPrefix(raw, EnvPrefix))
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

var memLimitType = reflect.TypeOf(kdf.MemLimit(0))

// stringToMemLimitHook accepts "8192", "64KiB", "256MiB" or "1GiB" for MemLimit fields.
func stringToMemLimitHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != memLimitType {
			return data, nil
		}
		return ParseMemLimit(data.(string))
	}
}

var memSuffixes = []struct {
	suffix string
	unit   kdf.MemLimit
}{
	{"GiB", kdf.GiB},
	{"MiB", kdf.MiB},
	{"KiB", kdf.KiB},
	{"B", 1},
}

// ParseMemLimit parses a byte count with an optional binary suffix.
func ParseMemLimit(s string) (kdf.MemLimit, error) {
	s = strings.TrimSpace(s)
	unit := kdf.MemLimit(1)
	for _, m := range memSuffixes {
		if trimmed, ok := strings.CutSuffix(s, m.suffix); ok {
			s, unit = strings.TrimSpace(trimmed), m.unit
			break
		}
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "memory size %q", s)
	}
	if n > uint64(^kdf.MemLimit(0)/unit) {
		return 0, errors.Wrapf(ErrInvalidConfig, "memory size %q overflows", s)
	}
	return kdf.MemLimit(n) * unit, nil
}
