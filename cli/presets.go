package cli

import (
	"github.com/spf13/cobra"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/factory"
	"github.com/dealforge/deal-engine/waterfall"
)

func presetsCmd() *cobra.Command {
	var tiers bool

	c := &cobra.Command{
		Use:   "presets [TYPE]",
		Short: "Print default inputs as deal envelopes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tiers {
				return printJSON(cmd.OutOrStdout(), waterfall.Presets())
			}

			types := deals.AllTypes
			if len(args) == 1 {
				types = []deals.DealType{deals.DealType(args[0])}
			}

			envelopes := make([]factory.DealJSON, 0, len(types))
			for _, t := range types {
				in, err := deals.Preset(t)
				if err != nil {
					return err
				}
				dj, err := factory.ToJSON(string(t)+" preset", in)
				if err != nil {
					return err
				}
				envelopes = append(envelopes, dj)
			}
			if len(envelopes) == 1 {
				return printJSON(cmd.OutOrStdout(), envelopes[0])
			}
			return printJSON(cmd.OutOrStdout(), envelopes)
		},
	}

	c.Flags().BoolVar(&tiers, "waterfall", false, "print syndication waterfall presets instead")
	return c
}
