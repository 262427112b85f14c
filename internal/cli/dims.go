package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/scaffold/internal/graph"
)

// dimFlags binds the dimension flags shared by generate, check, job and
// model commands.
type dimFlags struct {
	cmd *cobra.Command
	d   graph.Dimensions
}

func addDimFlags(cmd *cobra.Command) *dimFlags {
	f := &dimFlags{cmd: cmd}
	cmd.Flags().Float64Var(&f.d.LengthM, "length", 0, "building length in metres")
	cmd.Flags().Float64Var(&f.d.HeightM, "height", 0, "building height in metres")
	cmd.Flags().Float64Var(&f.d.LiftM, "lift", 0, "lift height in metres")
	cmd.Flags().Float64Var(&f.d.BayLengthM, "bay-length", 0, "bay length in metres (default from config)")
	return f
}

// set reports whether any dimension flag was given.
func (f *dimFlags) set() bool {
	for _, name := range []string{"length", "height", "lift", "bay-length"} {
		if f.cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// dims returns the flag values with the configured bay length filled in.
func (f *dimFlags) dims(o *RootOptions) graph.Dimensions {
	return o.Config.ApplyDefaults(f.d)
}
