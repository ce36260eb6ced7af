package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Rana718/dataorganizer/internal/config"
)

var Version = "0.4.0"

var (
	confBase        string
	defaultSettings string
	secretsFile     string
	debug           bool
)

func showBanner() {
	green := color.New(color.FgGreen, color.Bold)
	green.Println("╔══════════════════════════════════════╗")
	green.Println("║        🗂  Data Organizer CLI          ║")
	green.Println("╚══════════════════════════════════════╝")

	fmt.Print("   ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "organizer",
	Short: "Configuration driven data entry and extraction",
	Long: `
Data Organizer reads table definitions from configuration, asks for column
values, validates them against the column types and inserts the rows.
Related tables can be filled in the same session with the shared key
carried over.

Database Support:
- PostgreSQL
- MySQL
- SQLite`,
	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("Data Organizer CLI version %s\n", Version)
			return
		}

		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&confBase, "conf_base", "conf/",
		"Base directory containing all config files. Every other config path is relative to it")
	rootCmd.PersistentFlags().StringVar(&defaultSettings, "default_settings", "settings.toml",
		"Main settings file defining DB options and table settings")
	rootCmd.PersistentFlags().StringVar(&secretsFile, "secrets", ".secrets.toml",
		"File containing the secrets (e.g. database password)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}
}

// loadConfig loads the settings plus the table files passed as arguments.
func loadConfig(tableFiles []string) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfDir:         confBase,
		DefaultSettings: defaultSettings,
		Secrets:         secretsFile,
		TableFiles:      tableFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func logLevel(cfg *config.Config) string {
	if debug {
		return "debug"
	}
	return cfg.Logging.Level
}
