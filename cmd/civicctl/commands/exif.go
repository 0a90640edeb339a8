package commands

import (
	"github.com/spf13/cobra"

	"github.com/mr1hm/civic-eye/internal/exif"
)

func exifCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exif <photo>",
		Short: "Print GPS metadata extracted from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, exif.ExtractBytes(b))
		},
	}
	return cmd
}
