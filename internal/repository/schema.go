package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	runsTable     = "runs"
	runItemsTable = "run_items"
)

var (
	// RunsColumns holds the columns for the "runs" table.
	RunsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
		{Name: "input_dir", Type: field.TypeString, Size: 2147483647},
		{Name: "output_dir", Type: field.TypeString, Size: 2147483647},
		{Name: "output_format", Type: field.TypeString, Size: 16},
		{Name: "workers", Type: field.TypeInt},
		{Name: "start_number", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt, Default: 0},
		{Name: "succeeded", Type: field.TypeInt, Default: 0},
		{Name: "failed", Type: field.TypeInt, Default: 0},
		{Name: "status", Type: field.TypeString, Size: 16},
	}
	// RunsTable holds the schema information for the "runs" table.
	RunsTable = &schema.Table{
		Name:       runsTable,
		Columns:    RunsColumns,
		PrimaryKey: []*schema.Column{RunsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "run_started_at", Unique: false, Columns: []*schema.Column{RunsColumns[1]}},
		},
	}
	// RunItemsColumns holds the columns for the "run_items" table.
	RunItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "run_id", Type: field.TypeString, Size: 36},
		{Name: "number", Type: field.TypeInt},
		{Name: "source_name", Type: field.TypeString, Size: 2147483647},
		{Name: "destination_name", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "message", Type: field.TypeString, Size: 2147483647},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "elapsed_ms", Type: field.TypeInt64},
		{Name: "finished_at", Type: field.TypeTime},
	}
	// RunItemsTable holds the schema information for the "run_items" table.
	RunItemsTable = &schema.Table{
		Name:       runItemsTable,
		Columns:    RunItemsColumns,
		PrimaryKey: []*schema.Column{RunItemsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "run_item_run_id_number", Unique: true, Columns: []*schema.Column{RunItemsColumns[1], RunItemsColumns[2]}},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		RunsTable,
		RunItemsTable,
	}
)

// Migrate creates or updates the ledger tables.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver)
	if err != nil {
		return fmt.Errorf("ledger migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("ledger migrate: %w", err)
	}
	return nil
}
