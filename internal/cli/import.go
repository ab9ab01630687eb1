package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/importer"
	"github.com/piwi3910/CutStock/internal/model"
	"github.com/piwi3910/CutStock/internal/project"
)

// importCommand creates the import command, which builds an observation snapshot.
func (c *CLI) importCommand() *cobra.Command {
	var (
		stocksPath string
		output     string
		sheets     int
		width      int
		height     int
	)

	cmd := &cobra.Command{
		Use:   "import [products.csv|products.xlsx]",
		Short: "Build an observation snapshot from a cut list",
		Long: `Build an observation snapshot from a cut list.

Product rows hold label, width, height and quantity in whole grid cells.
Stock sheets come from --stocks (same columns, quantity = number of sheets)
or, without it, --sheets identical sheets of --width x --height.

The snapshot can be passed to 'cutstock decide' or 'cutstock run --snapshot'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			products := importer.Import(input, importer.KindProducts)
			if !c.reportImport(input, products) {
				return fmt.Errorf("import %s failed with %d error(s)", input, len(products.Errors))
			}

			var stocks []model.Stock
			var labels []string
			if stocksPath != "" {
				res := importer.Import(stocksPath, importer.KindStocks)
				if !c.reportImport(stocksPath, res) {
					return fmt.Errorf("import %s failed with %d error(s)", stocksPath, len(res.Errors))
				}
				stocks, labels = res.Stocks, res.Labels
			} else {
				for i := 0; i < sheets; i++ {
					stocks = append(stocks, model.NewStock(width, height, width, height))
				}
			}

			obs := model.Observation{Stocks: stocks, Products: products.Products}
			if err := engine.ValidateObservation(obs); err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".snapshot.json"
			}
			if err := project.SaveSnapshot(output, project.NewSnapshot(obs, labels)); err != nil {
				return err
			}

			summary := model.SummarizeDemand(obs.Products, obs.Stocks)
			printSuccess(c.Out, "Snapshot saved")
			printFile(c.Out, output)
			printStat(c.Out, "products", len(obs.Products))
			printStat(c.Out, "pieces", summary.DemandUnits)
			printStat(c.Out, "stocks", len(obs.Stocks))
			printStat(c.Out, "demand area", summary.DemandArea)
			printStat(c.Out, "free area", summary.FreeArea)
			printStat(c.Out, "stocks needed", fmt.Sprintf(">= %d", summary.StocksNeededMin))
			if summary.DemandArea > summary.FreeArea {
				printWarning(c.Out, "Demand exceeds the free stock area; some pieces cannot be cut")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stocksPath, "stocks", "", "stock sheet list (CSV or Excel)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file (default: <input>.snapshot.json)")
	cmd.Flags().IntVar(&sheets, "sheets", 1, "number of sheets when --stocks is not given")
	cmd.Flags().IntVar(&width, "width", 100, "sheet width when --stocks is not given")
	cmd.Flags().IntVar(&height, "height", 100, "sheet height when --stocks is not given")

	return cmd
}

// reportImport logs warnings and errors and reports whether the import is usable.
func (c *CLI) reportImport(path string, res importer.ImportResult) bool {
	for _, w := range res.Warnings {
		c.Logger.Warn(w, "file", path)
	}
	for _, e := range res.Errors {
		c.Logger.Error(e, "file", path)
	}
	return len(res.Errors) == 0
}
