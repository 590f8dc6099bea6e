package migrations

import "embed"

// PostgresFS embeds the PostgreSQL migration files (journeys, touchpoints).
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse migration files (attribution runs, credits).
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
