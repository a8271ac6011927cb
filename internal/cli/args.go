package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// invocationArgs reconstructs the flags set on cmd, in flag-name order.
// Repeatable flags appear once per value. Flags with an optional value are
// written as --name=value so a replay cannot mistake the value for a flag.
func invocationArgs(cmd *cobra.Command) []string {
	args := []string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		name := "--" + f.Name
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			for _, v := range sv.GetSlice() {
				args = append(args, name, v)
			}
			return
		}
		if f.Value.Type() == "bool" {
			if f.Value.String() == "true" {
				args = append(args, name)
			} else {
				args = append(args, name+"=false")
			}
			return
		}
		if f.NoOptDefVal != "" {
			args = append(args, name+"="+f.Value.String())
			return
		}
		args = append(args, name, f.Value.String())
	})
	return args
}
