package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Rana718/dataorganizer/internal/database"
	"github.com/Rana718/dataorganizer/internal/editor"
	"github.com/Rana718/dataorganizer/internal/logging"
	"github.com/Rana718/dataorganizer/internal/prompt"
)

const editAppName = "DataOrganizerCli-EditTable"

var editStrict bool

var editCmd = &cobra.Command{
	Use:   "edit [TABLE_FILES...]",
	Short: "Interactively add rows to configured tables",
	Long: `Start an editing session. Pick a table, enter a value for every column and
the row is inserted. Missing tables can be created on the fly, and tables
with a relative table offer to continue there with the shared key filled in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}

		logFile := logging.FileWriter(cfg.Logging.File)
		defer logFile.Close()
		logging.Setup(logLevel(cfg), cfg.Logging.Format, logFile)

		ctx := cmd.Context()
		db, err := database.NewAdapter(ctx, cfg.DB, editAppName)
		if err != nil {
			return err
		}
		defer db.Close()

		session := editor.NewSession(cfg, db, editor.NewTerminal(prompt.Stdio()), editor.Options{Strict: editStrict})
		color.Cyan("🗂  Editing session %s (log: %s)", session.ID, cfg.Logging.File)
		fmt.Println()

		if err := session.Run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				color.Yellow("⚠️  Input closed, ending session")
				return nil
			}
			return fmt.Errorf("editing session failed: %w", err)
		}

		color.Green("✅ Session finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().BoolVar(&editStrict, "strict", false, "Stop at the first invalid value instead of asking again")
}
