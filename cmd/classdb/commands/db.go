package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/db"
	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/logger"
)

// DbCmd inspects the classification database
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the classification database",
	Long: `Inspect and maintain the classification database.

Examples:
  classdb db stats                # Record count and file size
  classdb db migrate              # Apply pending schema migrations`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runDbStats,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbMigrateCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	count, err := st.Count(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to count records")
	}

	path := cfg.GetDatabasePath()
	data := pterm.TableData{
		{"Database path", path},
		{"Records", pterm.Sprint(count)},
	}
	if info, err := os.Stat(path); err == nil {
		data = append(data, []string{"File size", formatBytes(info.Size())})
	}
	return pterm.DefaultTable.WithData(data).Render()
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	path := cfg.GetDatabasePath()
	conn, err := db.Open(path, logger.Logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(conn, logger.Logger); err != nil {
		return errors.Wrapf(err, "failed to migrate %s", path)
	}
	pterm.Success.Printfln("Database %s is up to date", path)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return pterm.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return pterm.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
