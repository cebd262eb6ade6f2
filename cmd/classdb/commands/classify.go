package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/errors"
)

// ClassifyCmd asks one classifier about one item
var ClassifyCmd = &cobra.Command{
	Use:   "classify <classifier> <criterion> <uri>",
	Short: "Ask one classifier about one item, without storing",
	Long: `Run a single classifier endpoint on an item and print its predictions.
Nothing is written to the database.

Examples:
  classdb classify convnet liver file://dataset/1.dcm
  classdb classify --static fixtures.toml mammo density file://dataset/9.dcm`,
	Args: cobra.ExactArgs(3),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	name, criterion, item := args[0], args[1], args[2]

	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	c, err := registry.Get(name)
	if err != nil {
		return errors.WithHintf(err, "registered classifiers: %v", registry.List())
	}

	results, err := c.Classify(cmd.Context(), criterion, item)
	if err != nil {
		return errors.Wrapf(err, "classifier %s failed", name)
	}
	if len(results) == 0 {
		pterm.Info.Println("No predictions")
		return nil
	}

	data := pterm.TableData{{"Prediction", "Score"}}
	for _, r := range results {
		data = append(data, []string{r.PredictionURI, strconv.FormatFloat(r.Score, 'f', 4, 64)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
