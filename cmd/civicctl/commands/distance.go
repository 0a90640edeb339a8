package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/verification"
)

func distanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distance <lat1> <lng1> <lat2> <lng2>",
		Short: "Great-circle distance between two coordinates",
		// Negative coordinates would otherwise parse as shorthand flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if a == "-h" || a == "--help" {
					return cmd.Help()
				}
			}
			if len(args) != 4 {
				return fmt.Errorf("accepts 4 arg(s), received %d", len(args))
			}
			vals := make([]float64, 4)
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				vals[i] = v
			}
			d, err := geo.Distance(
				geo.Coordinate{Latitude: vals[0], Longitude: vals[1]},
				geo.Coordinate{Latitude: vals[2], Longitude: vals[3]},
			)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"meters":    d,
				"formatted": verification.FormatDistance(d),
			})
		},
	}
	return cmd
}
