package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds each config key to the flag of the given name.
func bindFlags(lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, flag := range keys {
		viper.BindPFlag(key, lookup(flag))
	}
}
