package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	cuekiterrors "github.com/cuekit-dev/cuekit/internal/errors"
	"github.com/cuekit-dev/cuekit/pkg/props"

	// Register the cue schema.
	_ "github.com/cuekit-dev/cuekit/pkg/cue"
)

func defaultsCmd() *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "defaults <type>",
		Short: "Print a registered type's default properties as JSON",
		Long: `Prints the declared defaults of a registered type.

By default this is the class-defaults snapshot. With --deep it is the
instance-defaults snapshot, which recursively expands nested object
defaults (the form a UI uses to build a default-populated editor).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := props.TypeByName(args[0])
			if t == nil {
				return cuekiterrors.New("E102").
					WithDetail("no type %q; known types: %v", args[0], props.TypeNames())
			}

			var defaults props.Map
			if deep {
				defaults = props.NewObject(t).InstanceDefaults(nil)
			} else {
				defaults = t.Defaults(nil)
			}

			out, err := json.MarshalIndent(defaults, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "expand nested object defaults")
	return cmd
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered types",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range props.TypeNames() {
				fmt.Println(name)
			}
		},
	}
}
