package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rana718/dataorganizer/internal/database"
	"github.com/Rana718/dataorganizer/internal/extract"
	"github.com/Rana718/dataorganizer/internal/logging"
)

const extractAppName = "DataOrganizerCli-ExtractByte"

var (
	extractPath        string
	extractPrefix      string
	extractExt         string
	extractDataColumn  string
	extractColumns     string
	extractTable       string
	extractJoinTables  []string
	extractJoinOn      []string
	extractJoinColumns []string
	extractWorkers     int
)

var extractCmd = &cobra.Command{
	Use:   "extract [TABLE_FILES...]",
	Short: "Write the values of a binary column to files",
	Long: `Save the values of a byte column to files. The file name is built from the
other selected columns: <path>/<prefix>_<col1>_<col2>....<ext>. Columns of
joined tables can be added with --join_tables, --join_on and --join_columns,
each passed once per joined table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if info, err := os.Stat(extractPath); err != nil || !info.IsDir() {
			return fmt.Errorf("output path %s does not exist", extractPath)
		}

		joins, err := extract.ParseJoins(extractJoinTables, extractJoinOn, extractJoinColumns)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		logger := logging.Setup(logLevel(cfg), cfg.Logging.Format, os.Stderr)

		ctx := cmd.Context()
		db, err := database.NewAdapter(ctx, cfg.DB, extractAppName)
		if err != nil {
			return err
		}
		defer db.Close()

		code := extract.Run(ctx, db, extract.Options{
			Path:       extractPath,
			Prefix:     extractPrefix,
			Ext:        extractExt,
			DataColumn: extractDataColumn,
			Columns:    extract.SplitColumns(extractColumns),
			Table:      extractTable,
			Joins:      joins,
			Workers:    extractWorkers,
		}, logger)
		if code != 0 {
			return fmt.Errorf("extraction failed with exit code %d", code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractPath, "path", "", "Full output path. Must exist")
	extractCmd.Flags().StringVar(&extractPrefix, "prefix", "", "Prefix of the output files")
	extractCmd.Flags().StringVar(&extractExt, "ext", "", "Extension of the output files")
	extractCmd.Flags().StringVar(&extractDataColumn, "data_column", "", "Byte column that is written to the files")
	extractCmd.Flags().StringVar(&extractColumns, "columns", "", "Comma separated columns of --table used for the file names")
	extractCmd.Flags().StringVar(&extractTable, "table", "", "Main table holding the data")
	extractCmd.Flags().StringArrayVar(&extractJoinTables, "join_tables", nil, "Table joined to the main table (repeatable)")
	extractCmd.Flags().StringArrayVar(&extractJoinOn, "join_on", nil, "Column present in both tables used for the join (repeatable)")
	extractCmd.Flags().StringArrayVar(&extractJoinColumns, "join_columns", nil, "Comma separated columns selected from the joined table (repeatable)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 4, "Number of files written concurrently")

	for _, name := range []string{"path", "prefix", "ext", "data_column", "columns", "table"} {
		extractCmd.MarkFlagRequired(name)
	}
}
