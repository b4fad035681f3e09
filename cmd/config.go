package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// applyConfigDefaults merges config file defaults into the scan flags
// when the user did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	if viper.IsSet("defaults.retries") {
		applyIntDefault(cmd.Flags(), "retries", viper.GetInt("defaults.retries"), func(v int) {
			scanFlags.retries = v
		})
	}
	if viper.IsSet("defaults.debug") {
		applyBoolDefault(cmd.Flags(), "debug", viper.GetBool("defaults.debug"), func(v bool) {
			scanFlags.debug = v
		})
	}
	if viper.IsSet("defaults.method") {
		setStringFlagIfUnset(cmd.Flags(), "method", viper.GetString("defaults.method"))
	}
	if viper.IsSet("defaults.proxy") {
		setStringFlagIfUnset(cmd.Flags(), "proxy", viper.GetString("defaults.proxy"))
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}
