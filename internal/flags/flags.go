package flags

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Def defines a command-line flag bound to a viper configuration key.
type (
	Type interface {
		string | int | int64 | bool | time.Duration
	}

	Def[T Type] struct {
		Name         string
		ViperKey     string
		DefaultValue T
		Description  string
	}
)

// Declare declares multiple flags on fs and binds them to v.
func Declare[T Type](v *viper.Viper, fs *pflag.FlagSet, defs []Def[T]) error {
	for _, def := range defs {
		if err := declare(v, fs, def); err != nil {
			return err
		}
	}
	return nil
}

// declare declares a single flag. The type parameter T determines the flag type.
func declare[T Type](v *viper.Viper, fs *pflag.FlagSet, def Def[T]) error {
	switch value := any(def.DefaultValue).(type) {
	case string:
		fs.String(def.Name, value, def.Description)
	case int:
		fs.Int(def.Name, value, def.Description)
	case int64:
		fs.Int64(def.Name, value, def.Description)
	case bool:
		fs.Bool(def.Name, value, def.Description)
	case time.Duration:
		fs.Duration(def.Name, value, def.Description)
	}
	if def.ViperKey == "" {
		return nil
	}
	return v.BindPFlag(def.ViperKey, fs.Lookup(def.Name))
}
