package commands

import (
	"github.com/spf13/cobra"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/verification"
)

func verifyCmd() *cobra.Command {
	var (
		original, solution string
		lat, lng           float64
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a solution photo against the original issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := verification.Request{
				OriginalPhotoURL: original,
				SolutionPhotoURL: solution,
			}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				req.OriginalLocation = &geo.Coordinate{Latitude: lat, Longitude: lng}
			}
			res, err := verifier.Verify(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&original, "original", "", "original issue photo (path or URL)")
	cmd.Flags().StringVar(&solution, "solution", "", "solution photo (path or URL)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "original issue latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "original issue longitude")
	cmd.MarkFlagRequired("original")
	cmd.MarkFlagRequired("solution")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	return cmd
}
