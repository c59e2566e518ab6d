package df

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// All code interacting with a database is here

var (
	//go:embed skeletons/clickhouse/create.txt
	chCreate string
	//go:embed skeletons/postgres/create.txt
	pgCreate string

	//go:embed skeletons/clickhouse/types.txt
	chTypes string
	//go:embed skeletons/postgres/types.txt
	pgTypes string

	//go:embed skeletons/clickhouse/fields.txt
	chFields string
	//go:embed skeletons/postgres/fields.txt
	pgFields string

	//go:embed skeletons/clickhouse/dropIf.txt
	chDropIf string
	//go:embed skeletons/postgres/dropIf.txt
	pgDropIf string
)

const (
	ch = "clickhouse"
	pg = "postgres"
)

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Dialect writes DFs to a ClickHouse or Postgres table.
type Dialect struct {
	db      *sql.DB
	dialect string

	dtTypes []string
	dbTypes []string

	create string
	dropIf string
	fields string
}

func NewDialect(dialect string, db *sql.DB) (*Dialect, error) {
	dialect = strings.ToLower(dialect)

	d := &Dialect{db: db, dialect: dialect}

	var types string
	switch d.dialect {
	case ch:
		d.create, d.fields, d.dropIf = chCreate, chFields, chDropIf
		types = chTypes
	case pg:
		d.create, d.fields, d.dropIf = pgCreate, pgFields, pgDropIf
		types = pgTypes
	default:
		return nil, fmt.Errorf("no skeletons for database %s", dialect)
	}

	d.create, d.fields, d.dropIf = strings.TrimSpace(d.create), strings.TrimSpace(d.fields), strings.TrimSpace(d.dropIf)

	for _, lm := range strings.Split(types, "\n") {
		if strings.TrimSpace(lm) == "" {
			continue
		}

		t := strings.Split(lm, ",")
		if len(t) != 2 {
			return nil, fmt.Errorf("bad type line %q in NewDialect", lm)
		}

		if DTFromString(t[0]) == DTunknown {
			return nil, fmt.Errorf("unknown data type %s in NewDialect", t[0])
		}

		d.dtTypes = append(d.dtTypes, t[0])
		d.dbTypes = append(d.dbTypes, strings.TrimSpace(t[1]))
	}

	return d, nil
}

// ***************** Methods *****************

func (d *Dialect) Close() error {
	return d.db.Close()
}

func (d *Dialect) DB() *sql.DB {
	return d.db
}

func (d *Dialect) DialectName() string {
	return d.dialect
}

// CreateSQL returns the statement that creates tableName with the columns of df.
func (d *Dialect) CreateSQL(tableName, orderBy string, df *DF) (string, error) {
	if !tableNameRE.MatchString(tableName) {
		return "", fmt.Errorf("illegal table name %q", tableName)
	}

	if orderBy == "" {
		orderBy = df.ColumnNames()[0]
	}

	if df.Column(orderBy) == nil {
		return "", fmt.Errorf("order by column %s not in table", orderBy)
	}

	var flds []string
	for h := df.head; h != nil; h = h.next {
		var (
			dbType, name string
			e            error
		)
		if dbType, e = d.dbtype(h.col.DataType()); e != nil {
			return "", e
		}

		if name, e = d.Quote(h.col.Name()); e != nil {
			return "", e
		}

		field := strings.ReplaceAll(d.fields, "?Field", name)
		flds = append(flds, strings.ReplaceAll(field, "?Type", dbType))
	}

	key, _ := d.Quote(orderBy)
	create := strings.ReplaceAll(d.create, "?TableName", tableName)
	create = strings.Replace(create, "?OrderBy", key, 1)
	create = strings.Replace(create, "?fields", strings.Join(flds, ", "), 1)

	return create, nil
}

// InsertSQL returns the statement used to prepare row inserts into tableName.
func (d *Dialect) InsertSQL(tableName string, fields []string) (string, error) {
	var quoted, marks []string
	for ind, f := range fields {
		q, e := d.Quote(f)
		if e != nil {
			return "", e
		}

		quoted = append(quoted, q)
		if d.dialect == pg {
			marks = append(marks, fmt.Sprintf("$%d", ind+1))
			continue
		}

		marks = append(marks, "?")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(quoted, ", "), strings.Join(marks, ", ")), nil
}

// Quote returns the field name as a quoted identifier. Column names here carry spaces,
// accents and parentheses.
func (d *Dialect) Quote(field string) (string, error) {
	if strings.ContainsAny(field, "\"`") {
		return "", fmt.Errorf("illegal quote in field name %q", field)
	}

	return `"` + field + `"`, nil
}

func (d *Dialect) Exists(ctx context.Context, tableName string) (bool, error) {
	switch d.dialect {
	case ch:
		var exist uint8
		if e := d.db.QueryRowContext(ctx, fmt.Sprintf("EXISTS TABLE %s", tableName)).Scan(&exist); e != nil {
			return false, e
		}

		return exist == 1, nil
	case pg:
		var exist sql.NullString
		if e := d.db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", tableName).Scan(&exist); e != nil {
			return false, e
		}

		return exist.Valid, nil
	}

	return false, fmt.Errorf("unsupported db dialect %s", d.dialect)
}

func (d *Dialect) DropTable(ctx context.Context, tableName string) error {
	if !tableNameRE.MatchString(tableName) {
		return fmt.Errorf("illegal table name %q", tableName)
	}

	_, e := d.db.ExecContext(ctx, strings.ReplaceAll(d.dropIf, "?TableName", tableName))

	return e
}

// Save writes df to tableName, creating it. An existing table is replaced if overwrite is true.
func (d *Dialect) Save(ctx context.Context, tableName, orderBy string, overwrite bool, df *DF) error {
	if d.dialect == ch {
		for h := df.head; h != nil; h = h.next {
			if h.col.HasNulls() {
				return fmt.Errorf("column %s has nulls, clickhouse table %s cannot hold them", h.col.Name(), tableName)
			}
		}
	}

	var (
		create, insert string
		exists         bool
		e              error
	)
	if create, e = d.CreateSQL(tableName, orderBy, df); e != nil {
		return e
	}

	if insert, e = d.InsertSQL(tableName, df.ColumnNames()); e != nil {
		return e
	}

	if exists, e = d.Exists(ctx, tableName); e != nil {
		return e
	}

	if exists && !overwrite {
		return fmt.Errorf("table %s exists", tableName)
	}

	if exists {
		if e = d.DropTable(ctx, tableName); e != nil {
			return e
		}
	}

	if _, e = d.db.ExecContext(ctx, create); e != nil {
		return fmt.Errorf("create %s: %w", tableName, e)
	}

	return d.insert(ctx, insert, df)
}

func (d *Dialect) insert(ctx context.Context, insert string, df *DF) error {
	var (
		tx   *sql.Tx
		stmt *sql.Stmt
		e    error
	)
	if tx, e = d.db.BeginTx(ctx, nil); e != nil {
		return e
	}

	if stmt, e = tx.PrepareContext(ctx, insert); e != nil {
		_ = tx.Rollback()
		return e
	}

	for row := 0; row < df.RowCount(); row++ {
		vals := df.Row(row)
		for ind, v := range vals {
			if dt, ok := v.(time.Time); ok {
				vals[ind] = time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
			}
		}

		if _, e = stmt.ExecContext(ctx, vals...); e != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d: %w", row, e)
		}
	}

	_ = stmt.Close()

	return tx.Commit()
}

func (d *Dialect) dbtype(dt DataTypes) (string, error) {
	pos := position(dt.String(), d.dtTypes)
	if pos < 0 {
		return "", fmt.Errorf("cannot find type %s to map to DB type", dt.String())
	}

	return d.dbTypes[pos], nil
}
