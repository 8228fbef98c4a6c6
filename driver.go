package pgwire

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"time"
)

func init() {
	sql.Register("pgwire", sqlDriver{})
}

// sqlDriver adapts Conn to database/sql/driver.Driver so pgwire can be
// used as a standard library database/sql backend via sql.Open("pgwire", dsn).
type sqlDriver struct{}

func (sqlDriver) Open(dsn string) (driver.Conn, error) {
	cfg, err := ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := Connect(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

type sqlConn struct {
	conn *Conn
}

func (c *sqlConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(context.Background(), query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{stmt: stmt}, nil
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

func (c *sqlConn) Begin() (driver.Tx, error) {
	if _, err := c.conn.Exec(context.Background(), "BEGIN"); err != nil {
		return nil, err
	}
	return &sqlTx{conn: c.conn}, nil
}

type sqlStmt struct {
	stmt *Statement
}

func (s *sqlStmt) Close() error { return s.stmt.Close(context.Background()) }

// NumInput returns -1, so database/sql does not check the argument count
// itself; a count that does not match the statement is reported by the
// server when the parameters are bound.
func (s *sqlStmt) NumInput() int { return -1 }

func (s *sqlStmt) Exec(args []driver.Value) (driver.Result, error) {
	n, err := s.stmt.Execute(context.Background(), driverValuesToParams(args)...)
	if err != nil {
		return nil, err
	}
	return driver.RowsAffected(n), nil
}

func (s *sqlStmt) Query(args []driver.Value) (driver.Rows, error) {
	cur, err := s.stmt.Query(context.Background(), driverValuesToParams(args)...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{cur: cur}, nil
}

type sqlTx struct {
	conn *Conn
}

func (t *sqlTx) Commit() error {
	_, err := t.conn.Exec(context.Background(), "COMMIT")
	return err
}

func (t *sqlTx) Rollback() error {
	_, err := t.conn.Exec(context.Background(), "ROLLBACK")
	return err
}

type sqlRows struct {
	cur *Cursor
}

func (r *sqlRows) Columns() []string {
	cols := r.cur.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func (r *sqlRows) Close() error { return r.cur.Close(context.Background()) }

func (r *sqlRows) Next(dest []driver.Value) error {
	row, ok, err := r.cur.Next(context.Background())
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	for i := range dest {
		col := row.Column(i)
		if col.IsNull() {
			dest[i] = nil
			continue
		}
		raw := col.Raw()
		b := make([]byte, len(raw))
		copy(b, raw)
		dest[i] = b
	}
	return nil
}

// driverValuesToParams adapts database/sql's driver.Value (int64, float64,
// bool, []byte, string, time.Time, or nil) to the types encodeParamValue
// understands, formatting time.Time in UTC as space-separated
// "YYYY-MM-DD HH:MM:SS[.ffffff]Z" text (not RFC 3339's "T" form).
func driverValuesToParams(args []driver.Value) []interface{} {
	params := make([]interface{}, len(args))
	for i, v := range args {
		if t, ok := v.(time.Time); ok {
			params[i] = t.UTC().Format("2006-01-02 15:04:05.999999Z07:00")
			continue
		}
		params[i] = v
	}
	return params
}
