package pgwire

import "context"

// Query runs sql and returns a Cursor for row-by-row retrieval. With no
// params it uses the simple query protocol directly; with params it
// prepares an unnamed-for-this-call statement via the extended protocol,
// binds params, and closes the statement when the Cursor closes.
func (c *Conn) Query(ctx context.Context, sql string, params ...interface{}) (*Cursor, error) {
	if len(params) == 0 {
		return c.queryUnprepared(ctx, sql)
	}

	stmt, err := c.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	cur, err := stmt.Query(ctx, params...)
	if err != nil {
		stmt.Close(ctx)
		return nil, err
	}
	cur.ownedStmt = stmt
	return cur, nil
}

// Exec runs sql for its side effects and returns the number of rows
// affected, discarding any result rows. Unlike Query, it does not request
// row metadata when params are bound, since a DML statement's result has
// no columns worth describing.
func (c *Conn) Exec(ctx context.Context, sql string, params ...interface{}) (int64, error) {
	if len(params) == 0 {
		cur, err := c.queryUnprepared(ctx, sql)
		if err != nil {
			return 0, err
		}
		if err := cur.drain(ctx); err != nil {
			cur.Close(ctx)
			return 0, err
		}
		rowsAffected := cur.RowsAffected()
		return rowsAffected, cur.Close(ctx)
	}

	stmt, err := c.Prepare(ctx, sql)
	if err != nil {
		return 0, err
	}
	defer stmt.Close(ctx)
	return stmt.Execute(ctx, params...)
}
