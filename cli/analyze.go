package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/factory"
)

// analysisOutput is one analyzed deal.
type analysisOutput struct {
	Name    string        `json:"name,omitempty"`
	Type    string        `json:"type"`
	Summary deals.Summary `json:"summary"`
	Result  deals.Result  `json:"result,omitempty"`
}

func analyzeCmd() *cobra.Command {
	var summaryOnly bool

	c := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze deal envelopes from JSON or YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []analysisOutput
			for _, path := range args {
				list, err := readDeals(cmd.InOrStdin(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for _, d := range list {
					if err := factory.Validate(d.Inputs); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					res, err := deals.Calculate(d.Inputs)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					logger.Debug("deal.analyzed", "file", path, "name", d.Name, "type", d.Inputs.Type())

					o := analysisOutput{Name: d.Name, Type: string(d.Inputs.Type()), Summary: deals.Summarize(res)}
					if !summaryOnly {
						o.Result = res
					}
					out = append(out, o)
				}
			}
			logger.Info("analyze.done", "deals", len(out))
			if len(out) == 1 {
				return printJSON(cmd.OutOrStdout(), out[0])
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	c.Flags().BoolVar(&summaryOnly, "summary", false, "print only the cross-deal summary")
	return c
}

// readDeals loads one file, which may hold a single envelope or a JSON list.
func readDeals(stdin io.Reader, path string) ([]factory.Deal, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".yaml" || ext == ".yml":
		d, err := factory.ParseDealYAML(data)
		if err != nil {
			return nil, err
		}
		return []factory.Deal{d}, nil
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")):
		return factory.ParseDealList(data)
	default:
		d, err := factory.ParseDeal(data)
		if err != nil {
			return nil, err
		}
		return []factory.Deal{d}, nil
	}
}
