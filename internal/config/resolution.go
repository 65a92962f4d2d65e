package config

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sources a value can come from, highest priority first.
const (
	SourceFlag    = "flag"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// Resolved is a validated Config plus where each value came from.
type Resolved struct {
	Config
	// File is the config file that was read, if any.
	File string

	v     *viper.Viper
	flags *pflag.FlagSet
}

// Source reports which layer supplied key, for debugging precedence.
func (r *Resolved) Source(key string) string {
	if r.flags != nil {
		if name, ok := flagKeys[key]; ok {
			if f := r.flags.Lookup(name); f != nil && f.Changed {
				return SourceFlag
			}
		}
	}
	env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if _, ok := os.LookupEnv(env); ok {
		return SourceEnv
	}
	if r.v != nil && r.v.InConfig(key) {
		return SourceFile
	}
	return SourceDefault
}

// Keys lists every configuration key.
func Keys() []string {
	keys := make([]string, 0, len(flagKeys))
	for k := range flagKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
