package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Rana718/dataorganizer/internal/database"
	"github.com/Rana718/dataorganizer/internal/logging"
	"github.com/Rana718/dataorganizer/internal/types"
)

const tablesAppName = "DataOrganizerCli-Tables"

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect and create the configured tables",
}

var tablesListCmd = &cobra.Command{
	Use:   "list [TABLE_FILES...]",
	Short: "List configured tables and their columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}

		if len(cfg.TableOrder) == 0 {
			color.Yellow("⚠️  No tables configured")
			return nil
		}

		for _, id := range cfg.TableOrder {
			printTable(id, cfg.Tables[id])
		}
		return nil
	},
}

var tablesCreateCmd = &cobra.Command{
	Use:   "create [TABLE_FILES...]",
	Short: "Create every configured table that does not exist yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		logging.Setup(logLevel(cfg), cfg.Logging.Format, os.Stderr)

		tables, foreignKeys, err := cfg.CreationPlan()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := database.NewAdapter(ctx, cfg.DB, tablesAppName)
		if err != nil {
			return err
		}
		defer db.Close()

		var created []string
		for _, table := range tables {
			exists, err := db.HasTable(ctx, table.Name, cfg.DB.Schema)
			if err != nil {
				return err
			}
			if !exists {
				created = append(created, table.Name)
			}
		}

		if err := db.CreateTables(ctx, tables, foreignKeys, cfg.DB.Schema); err != nil {
			return err
		}

		if len(created) == 0 {
			color.Green("✅ All %d tables already exist", len(tables))
			return nil
		}
		for _, name := range created {
			color.Green("✅ Created table %s", name)
		}
		return nil
	},
}

func printTable(id string, table *types.TableSpec) {
	color.Cyan("📋 %s (%s)", table.Name, id)
	if table.HasRelTable() {
		fk := ""
		if table.RelTableCommonColumnAsForeignKey {
			fk = ", foreign key"
		}
		fmt.Printf("   ↳ relative table %s on %s%s\n", table.RelTable, table.RelTableCommonColumn, fk)
	}

	for _, col := range table.Columns {
		var flags []string
		if col.IsPrimary {
			flags = append(flags, "primary")
		}
		if col.IsUnique {
			flags = append(flags, "unique")
		}
		if col.IsNullable {
			flags = append(flags, "nullable")
		}
		if !col.IsInserted {
			flags = append(flags, "auto")
		}
		if col.Default != nil {
			flags = append(flags, "default="+*col.Default)
		}

		fmt.Printf("   - %-20s %-14s %-10s %s\n", col.Name, col.CType, col.GoType(), strings.Join(flags, " "))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.AddCommand(tablesListCmd)
	tablesCmd.AddCommand(tablesCreateCmd)
}
