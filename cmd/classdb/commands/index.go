package commands

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/indexer"
	"github.com/teranos/classdb/logger"
)

// IndexCmd classifies items and stores their predictions
var IndexCmd = &cobra.Command{
	Use:   "index [uri...]",
	Short: "Classify and store items",
	Long: `Run every configured classifier endpoint on each item and store the
resulting predictions. Items are given as arguments, or one per line with
--from (use - for standard input).

Examples:
  classdb index file://dataset/1.dcm
  classdb index --from uris.txt
  find /data -name '*.dcm' | sed 's|^|file://|' | classdb index --from -`,
	RunE: runIndex,
}

var indexFrom string

func init() {
	IndexCmd.Flags().StringVar(&indexFrom, "from", "", "Read item URIs from this file, one per line (- for stdin)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && indexFrom == "" {
		return errors.New("no items to index: pass URIs or --from")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	items := slices.Values(args)
	if indexFrom != "" {
		r, closeFn, err := openItemSource(cmd, indexFrom)
		if err != nil {
			return err
		}
		defer closeFn()
		items = concat(items, lines(r))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emitter := newSpinnerEmitter()
	ix := newIndexer(st, classifier.NewCache(registry), indexer.WithEmitter(emitter))
	if len(ix.Endpoints()) == 0 {
		pterm.Warning.Println("No classifier endpoints configured; nothing will be indexed")
	}

	report := ix.IndexBatch(ctx, items).Wait()
	emitter.stop()

	if report.Errors > 0 {
		pterm.Warning.Printfln("Indexed %d predictions with %d errors in %dms", report.Indexed, report.Errors, report.ElapsedMs())
	} else {
		pterm.Success.Printfln("Indexed %d predictions in %dms", report.Indexed, report.ElapsedMs())
	}
	return ctx.Err()
}

// UnindexCmd removes items from the store
var UnindexCmd = &cobra.Command{
	Use:   "unindex <uri>...",
	Short: "Remove every prediction about items",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUnindex,
}

func runUnindex(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ix := newIndexer(st, classifier.NewRegistry())
	for _, item := range args {
		if ix.Unindex(cmd.Context(), item) {
			pterm.Success.Printfln("Removed %s", item)
		} else {
			pterm.Info.Printfln("Not indexed: %s", item)
		}
	}
	return nil
}

func openItemSource(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s", path)
	}
	return f, func() { f.Close() }, nil
}

// lines yields the non-blank, non-comment lines of r.
func lines(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

func concat(seqs ...iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, seq := range seqs {
			for v := range seq {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// spinnerEmitter renders indexer progress on a pterm spinner.
type spinnerEmitter struct {
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
}

func newSpinnerEmitter() *spinnerEmitter {
	s, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Indexing...")
	return &spinnerEmitter{spinner: s}
}

func (e *spinnerEmitter) update(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spinner != nil {
		e.spinner.UpdateText(text)
	}
}

func (e *spinnerEmitter) EmitStage(stage, message string) {
	e.update(message)
}

func (e *spinnerEmitter) EmitProgress(progress float32, metadata map[string]interface{}) {
	item, _ := metadata[logger.FieldItem].(string)
	if progress == indexer.Indeterminate {
		e.update(fmt.Sprintf("Indexing %s", item))
		return
	}
	e.update(fmt.Sprintf("Indexing %s (%.0f%%)", item, progress*100))
}

func (e *spinnerEmitter) EmitComplete(map[string]interface{}) {}

func (e *spinnerEmitter) EmitError(stage string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pterm.Warning.Printfln("%s: %v", stage, err)
}

func (e *spinnerEmitter) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spinner != nil {
		_ = e.spinner.Stop()
		e.spinner = nil
	}
}
