package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rana718/dataorganizer/internal/types"
)

// validIdentifier guards table and column names that end up in SQL.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Scalar keys a table mapping may carry besides its columns.
var tableKeys = map[string]string{
	"name":                                   "str",
	"rel_table":                              "str",
	"rel_table_common_column":                "str",
	"rel_table_common_column_as_foreign_key": "bool",
	"disable_auto_insert_columns":            "bool",
}

// loadTableFile parses a YAML table file. yaml.v3 nodes are walked directly
// so column order and case survive.
func (c *Config) loadTableFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read table file %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse table file %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level must be a mapping of tables", path)
	}

	for i := 0; i < len(root.Content); i += 2 {
		id := root.Content[i].Value
		if _, exists := c.Tables[id]; exists {
			return fmt.Errorf("%s: table %s defined more than once", path, id)
		}

		table, err := c.parseTable(id, root.Content[i+1])
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		c.Tables[id] = table
		c.TableOrder = append(c.TableOrder, id)
	}

	return nil
}

func (c *Config) parseTable(id string, node *yaml.Node) (*types.TableSpec, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("table %s: value must be a mapping", id)
	}

	table := &types.TableSpec{}
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]

		if value.Kind == yaml.MappingNode {
			col, err := c.parseColumn(key, value)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", id, err)
			}
			if table.HasColumn(col.Name) {
				return nil, fmt.Errorf("table %s: column %s defined more than once", id, col.Name)
			}
			table.Columns = append(table.Columns, col)
			continue
		}

		typ, ok := tableKeys[key]
		if !ok {
			return nil, fmt.Errorf("table %s: unexpected key %s", id, key)
		}
		if err := checkType(value, typ); err != nil {
			return nil, fmt.Errorf("table %s: key %s: %w", id, key, err)
		}

		switch key {
		case "name":
			table.Name = value.Value
		case "rel_table":
			table.RelTable = value.Value
		case "rel_table_common_column":
			table.RelTableCommonColumn = value.Value
		case "rel_table_common_column_as_foreign_key":
			table.RelTableCommonColumnAsForeignKey = value.Value == "true"
		case "disable_auto_insert_columns":
			table.DisableAutoInsertColumns = value.Value == "true"
		}
	}

	if table.Name == "" {
		return nil, fmt.Errorf("table %s: name must be set", id)
	}
	if !validIdentifier.MatchString(table.Name) {
		return nil, fmt.Errorf("table %s: invalid table name %q", id, table.Name)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table %s: no columns defined", id)
	}

	return table, nil
}

func (c *Config) parseColumn(name string, node *yaml.Node) (types.ColumnSpec, error) {
	if !validIdentifier.MatchString(name) {
		return types.ColumnSpec{}, fmt.Errorf("invalid column name %q", name)
	}

	settings := c.TableSettings
	seen := make(map[string]bool)
	var ctype string
	var opts []types.ColumnOption
	inserted := true

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]

		if !slices.Contains(settings.AllowedColumnKeys, key) {
			return types.ColumnSpec{}, fmt.Errorf("column %s: unexpected key %s", name, key)
		}
		if typ, ok := settings.ColumnKeyTypes[key]; ok {
			if err := checkType(value, typ); err != nil {
				return types.ColumnSpec{}, fmt.Errorf("column %s: key %s: %w", name, key, err)
			}
		}
		seen[key] = true

		flag := value.Value == "true"
		switch key {
		case "ctype":
			ctype = value.Value
		case "is_primary":
			if flag {
				opts = append(opts, types.Primary())
			}
		case "is_unique":
			if flag {
				opts = append(opts, types.Unique())
			}
		case "is_nullable":
			if flag {
				opts = append(opts, types.Nullable())
			}
		case "is_inserted":
			inserted = flag
		case "default":
			opts = append(opts, types.WithDefault(value.Value))
		}
	}

	for _, key := range settings.MandatoryColumnKeys {
		if !seen[key] {
			return types.ColumnSpec{}, fmt.Errorf("column %s: mandatory key %s missing", name, key)
		}
	}

	// Columns the database fills itself are never part of an insert.
	if c.isAutoFill(ctype) {
		inserted = false
	}
	if !inserted {
		opts = append(opts, types.NotInserted())
	}

	return types.NewColumnSpec(name, ctype, opts...)
}

func (c *Config) isAutoFill(ctype string) bool {
	for _, autoFill := range c.TableSettings.AutoFillCTypes {
		if strings.EqualFold(autoFill, ctype) {
			return true
		}
	}
	return false
}

func checkType(node *yaml.Node, typ string) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected a %s value", typ)
	}
	switch typ {
	case "str":
		if node.Tag != "!!str" {
			return fmt.Errorf("expected a string, got %q", node.Value)
		}
	case "bool":
		if node.Tag != "!!bool" {
			return fmt.Errorf("expected true or false, got %q", node.Value)
		}
	}
	return nil
}

// validateRelations checks every rel_table points at a configured table that
// has the common column.
func (c *Config) validateRelations() error {
	for _, id := range c.TableOrder {
		table := c.Tables[id]
		if table.RelTable == "" {
			if table.RelTableCommonColumn != "" {
				return fmt.Errorf("table %s: rel_table_common_column set without rel_table", id)
			}
			continue
		}

		rel, ok := c.Tables[table.RelTable]
		if !ok {
			return fmt.Errorf("table %s: rel_table %s is not defined", id, table.RelTable)
		}
		if table.RelTableCommonColumn == "" {
			return fmt.Errorf("table %s: rel_table_common_column must be set when rel_table is set", id)
		}
		if !rel.HasColumn(table.RelTableCommonColumn) {
			return fmt.Errorf("table %s: rel_table_common_column %s is not a column of %s",
				id, table.RelTableCommonColumn, table.RelTable)
		}
	}
	return nil
}

// CreationPlan orders the configured tables so that a table referenced by a
// foreign key is created before the table holding the key. The returned map
// is keyed by table name and holds the referenced parent.
func (c *Config) CreationPlan() ([]*types.TableSpec, map[string]*types.TableSpec, error) {
	foreignKeys := make(map[string]*types.TableSpec)
	parents := make(map[string][]string)
	for _, id := range c.TableOrder {
		table := c.Tables[id]
		if table.RelTable == "" || !table.RelTableCommonColumnAsForeignKey {
			continue
		}
		child := c.Tables[table.RelTable]
		if prev, ok := foreignKeys[child.Name]; ok {
			return nil, nil, fmt.Errorf("table %s is referenced by foreign keys from both %s and %s",
				child.Name, prev.Name, table.Name)
		}
		foreignKeys[child.Name] = table
		parents[table.RelTable] = append(parents[table.RelTable], id)
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var ordered []*types.TableSpec

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("foreign key cycle through table %s", id)
		}
		state[id] = visiting
		for _, parent := range parents[id] {
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[id] = done
		ordered = append(ordered, c.Tables[id])
		return nil
	}

	for _, id := range c.TableOrder {
		if err := visit(id); err != nil {
			return nil, nil, err
		}
	}
	return ordered, foreignKeys, nil
}
