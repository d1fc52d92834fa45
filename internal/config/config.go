// Package config carries the engine's build version and the runtime
// tunables that size/gate the interpreter (initial stack capacity, max
// call depth, default strict mode, a debug flag), loadable from a YAML file layered under flags and
// environment variables. Grounded on the teacher's internal/config
// (a package of bare exported vars/consts the rest of the tree reads
// directly) generalized into a struct a host can load several
// independent copies of, the way kube-state-metrics' pkg/options.Options
// is populated by viper from flags > env > YAML file > defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Version is the current Escargot engine version, set at release time
// the same way the teacher's Version var is (by -ldflags or by editing
// this file directly).
var Version = "0.1.0"

// Engine collects the tunables that size and gate one VM instance.
// The zero value is not meaningful; use Default() or Load().
type Engine struct {
	// InitialStackSize is loaded and defaulted like the other tunables,
	// but no VM reads it: internal/interp's newFrame always preallocates
	// a 16-value operand stack.
	InitialStackSize int `yaml:"initial_stack_size" mapstructure:"initial_stack_size"`

	// MaxCallDepth bounds recursive Go-level calls into callFunction,
	// the interpreter's surrogate for ES5's "Maximum call stack size
	// exceeded" RangeError (internal/interp's Interp.maxCallDepth).
	MaxCallDepth int `yaml:"max_call_depth" mapstructure:"max_call_depth"`

	// DefaultStrict sets whether pkg/escargot.VM.Evaluate parses source
	// with no own "use strict" prologue as strict regardless; false
	// matches ES5's own default (sloppy unless opted in).
	DefaultStrict bool `yaml:"default_strict" mapstructure:"default_strict"`

	// Debug is set from the config file or the CLI's --debug flag, but
	// no VM reads it: error objects carry no source line number and the
	// interpreter emits no trace events whether it is set or not.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// Default returns the tunables a host gets with no config file and no
// flags/env overrides.
func Default() Engine {
	return Engine{
		InitialStackSize: 16,
		MaxCallDepth:     1024,
		DefaultStrict:    false,
		Debug:            false,
	}
}

// Load builds an Engine from defaults, optionally overlaying a YAML
// file at path (ignored if empty) and ESCARGOT_-prefixed environment
// variables, the layering order the teacher's pkg/embed hosts (and
// kube-state-metrics' pkg/options) both use: defaults, then file, then
// environment. Flags are not read here; the CLI overlays --debug on
// the returned Engine.
func Load(path string) (Engine, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("initial_stack_size", def.InitialStackSize)
	v.SetDefault("max_call_depth", def.MaxCallDepth)
	v.SetDefault("default_strict", def.DefaultStrict)
	v.SetDefault("debug", def.Debug)

	v.SetEnvPrefix("ESCARGOT")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Engine{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var eng Engine
	if err := v.Unmarshal(&eng); err != nil {
		return Engine{}, fmt.Errorf("decoding engine config: %w", err)
	}
	return eng, nil
}
