package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/query"
)

// SearchCmd queries stored predictions
var SearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query stored predictions",
	Long: `Search the classification database. Results are ranked by score.

Query syntax:
  liver                      positive predictions for criterion "liver", or free text
  liver:false                predictions of class "false" for criterion "liver"
  convnet/pancreas:true      one classifier endpoint
  classifier:convnet         field match (uri, classifier, criterion, prediction)
  liv*                       prefix match
  a AND (b OR NOT c)         boolean structure; juxtaposition means OR

Examples:
  classdb search liver
  classdb search 'liver AND NOT aorta' --threshold 0.5
  classdb search 'criterion:liver' --all --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchLimit     int
	searchThreshold float32
	searchAll       bool
	searchJSON      bool
)

func init() {
	SearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results, -1 for unbounded (default from config)")
	SearchCmd.Flags().Float32VarP(&searchThreshold, "threshold", "t", 0, "Only scores above this (default from config)")
	SearchCmd.Flags().BoolVar(&searchAll, "all", false, "Return every matching class, not only the best per item and criterion")
	SearchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	defaults, err := defaultParams()
	if err != nil {
		return errors.Wrap(err, "invalid query defaults in configuration")
	}
	b := query.BuilderFrom(defaults)
	if cmd.Flags().Changed("limit") {
		b.NumberOfResults(searchLimit)
	}
	if cmd.Flags().Changed("threshold") {
		b.Threshold(searchThreshold)
	}
	if searchAll {
		b.OnlyBest(false)
	}
	params, err := b.Build()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	reader, err := st.Reader(cmd.Context())
	if err != nil {
		return err
	}
	defer reader.Close()

	records, err := reader.Search(cmd.Context(), args[0], params)
	if err != nil {
		var pe *query.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintln(cmd.ErrOrStderr(), pe.FormatTerminal())
			return errors.New("invalid query")
		}
		return err
	}

	if searchJSON {
		return printRecordsJSON(cmd, records)
	}
	if len(records) == 0 {
		pterm.Info.Println("No matches")
		return nil
	}
	return renderRecords(records)
}

func renderRecords(records []prediction.Record) error {
	data := pterm.TableData{{"Item", "Classifier", "Criterion", "Prediction", "Score"}}
	for _, r := range records {
		data = append(data, []string{
			r.Item,
			r.Classifier,
			r.Criterion,
			r.Class,
			strconv.FormatFloat(r.Score, 'f', 4, 64),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return errors.Wrap(err, "failed to render results")
	}
	pterm.Printfln("%d %s", len(records), plural(len(records), "result"))
	return nil
}

func printRecordsJSON(cmd *cobra.Command, records []prediction.Record) error {
	type row struct {
		Item       string  `json:"item"`
		Classifier string  `json:"classifierName"`
		Criterion  string  `json:"criterion"`
		Prediction string  `json:"prediction"`
		Score      float64 `json:"score"`
	}
	rows := make([]row, 0, len(records))
	for _, r := range records {
		rows = append(rows, row{r.Item, r.Classifier, r.Criterion, r.Class, r.Score})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
