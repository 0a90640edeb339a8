package commands

import (
	"github.com/spf13/cobra"

	"github.com/mr1hm/civic-eye/internal/exif"
	"github.com/mr1hm/civic-eye/internal/geo"
)

func previewCmd() *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "preview <photo>",
		Short: "Advisory location check against where you are now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			meta := exif.ExtractBytes(b)
			verdict, err := policy.Preview(meta, &geo.Coordinate{Latitude: lat, Longitude: lng})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"verdict": verdict, "metadata": meta})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "current latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "current longitude")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")
	return cmd
}
