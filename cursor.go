package pgwire

import (
	"context"
	"strconv"
	"strings"

	"github.com/wtemperley/pgwire/internal/protocol"
	"github.com/wtemperley/pgwire/pgerror"
)

// Cursor retrieves the results of a query row by row, pulling exactly one
// DataRow off the wire per Next call. A Cursor must be closed before the
// Conn it belongs to can be used for anything else.
type Cursor struct {
	conn       *Conn
	portalName string
	usesPortal bool
	ownedStmt  *Statement // non-nil if Conn.Query prepared a throwaway statement

	columns      []ColumnMetadata
	commandTag   string
	rowsAffected int64
	emptyQuery   bool
	closed       bool
	exhausted    bool // CommandComplete/EmptyQueryResponse/ErrorResponse seen; ReadyForQuery already consumed
}

// Columns describes the result's shape. For a prepared Query it is
// populated immediately, from the portal-level Describe response read
// before the Cursor is returned. For a parameterless Query run through the
// simple query protocol it is nil until the first call to Next reads the
// leading RowDescription. It stays nil for a command that returns no rows
// at all (e.g. UPDATE) or when column metadata wasn't requested.
func (cur *Cursor) Columns() []ColumnMetadata { return cur.columns }

// CommandTag is the raw command-completion tag the server reported, e.g.
// "SELECT 3" or "UPDATE 1". It is empty until the result is exhausted.
func (cur *Cursor) CommandTag() string { return cur.commandTag }

// RowsAffected parses the row count out of CommandTag. It is 0 until the
// result is exhausted.
func (cur *Cursor) RowsAffected() int64 { return cur.rowsAffected }

// EmptyQuery reports whether the statement text was empty.
func (cur *Cursor) EmptyQuery() bool { return cur.emptyQuery }

// Next advances to the next row, returning ok=false once the result is
// exhausted. Each call reads exactly one DataRow frame off the wire (plus
// any interleaved ParameterStatus/NoticeResponse/RowDescription frames
// that precede it) — rows are never buffered ahead of the caller's demand.
func (cur *Cursor) Next(ctx context.Context) (Row, bool, error) {
	if cur.closed {
		return Row{}, false, pgerror.CursorClosed()
	}
	if cur.exhausted {
		return Row{}, false, nil
	}
	conn := cur.conn

	for {
		tag, body, err := conn.readResultMessage(ctx)
		if err != nil {
			cur.exhausted = true
			return Row{}, false, err
		}

		switch tag {
		case protocol.RowDescription:
			fields, derr := protocol.DecodeRowDescription(body)
			if derr != nil {
				cur.exhausted = true
				return Row{}, false, pgerror.Protocol("%v", derr)
			}
			cur.columns = columnMetadataFromFields(fields)

		case protocol.NoData:
			cur.columns = nil

		case protocol.DataRow:
			values, derr := protocol.DecodeDataRow(body)
			if derr != nil {
				cur.exhausted = true
				return Row{}, false, pgerror.Protocol("%v", derr)
			}
			return cur.buildRow(values), true, nil

		case protocol.CommandComplete:
			tagStr, derr := protocol.DecodeCommandComplete(body)
			if derr != nil {
				cur.exhausted = true
				return Row{}, false, pgerror.Protocol("%v", derr)
			}
			cur.commandTag = tagStr
			cur.rowsAffected = parseRowsAffected(tagStr)
			return Row{}, false, cur.finish(ctx)

		case protocol.EmptyQueryResponse:
			cur.emptyQuery = true
			return Row{}, false, cur.finish(ctx)

		case protocol.ErrorResponse:
			fields, derr := protocol.DecodeNoticeOrError(body)
			if derr != nil {
				cur.exhausted = true
				return Row{}, false, pgerror.Protocol("%v", derr)
			}
			if ferr := cur.finish(ctx); ferr != nil {
				return Row{}, false, ferr
			}
			return Row{}, false, pgerror.Server(fields)

		default:
			cur.exhausted = true
			return Row{}, false, pgerror.Protocol("unexpected message %v while reading result", tag)
		}
	}
}

// buildRow wraps one DataRow's raw column bytes, pairing each with the
// name and type OID already captured from RowDescription (if any).
func (cur *Cursor) buildRow(raw [][]byte) Row {
	columns := make([]Column, len(raw))
	for i, v := range raw {
		name := ""
		var dataTypeOID int32
		if i < len(cur.columns) {
			name = cur.columns[i].Name
			dataTypeOID = cur.columns[i].DataTypeOID
		}
		columns[i] = newColumn(name, v, dataTypeOID)
	}
	return Row{columns: columns}
}

// finish reads through ReadyForQuery, which always immediately follows the
// terminal message of one query once Sync has been sent, and returns the
// connection to the ready state. Consuming it here never over-reads rows:
// ReadyForQuery carries no row data.
func (cur *Cursor) finish(ctx context.Context) error {
	conn := cur.conn
	cur.exhausted = true
	err := conn.drainUntilReady(ctx, nil)
	conn.state = StateReady
	return err
}

// drain reads and discards every remaining row, used by Statement.Execute
// and Conn.Exec which only care about RowsAffected.
func (cur *Cursor) drain(ctx context.Context) error {
	for {
		_, ok, err := cur.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// Close releases the Cursor's server-side portal (if any) and returns the
// connection to the ready state. Close is idempotent, and safe to call
// before the result has been fully consumed: any rows still in flight are
// discarded while draining to ReadyForQuery.
func (cur *Cursor) Close(ctx context.Context) error {
	if cur.closed {
		return nil
	}
	conn := cur.conn
	defer func() {
		conn.state = StateReady
		cur.closed = true
	}()

	if !cur.exhausted {
		if err := cur.finish(ctx); err != nil {
			return err
		}
	}

	if cur.usesPortal {
		conn.ctxR.ctx = ctx
		closeFrame := protocol.EncodeClose(&conn.writer, protocol.ClosePortal, cur.portalName)
		if _, err := conn.transport.Write(ctx, closeFrame); err != nil {
			return connectionClosed(err)
		}
		syncFrame := protocol.EncodeSync(&conn.writer)
		if _, err := conn.transport.Write(ctx, syncFrame); err != nil {
			return connectionClosed(err)
		}
		if err := conn.drainUntilReady(ctx, nil); err != nil {
			return err
		}
	}

	if cur.ownedStmt != nil {
		return cur.ownedStmt.Close(ctx)
	}
	return nil
}

// executePortal binds paramValues to the named prepared statement
// ("" for the unnamed statement) and sends Execute+Sync, returning a
// Cursor that reads the result lazily. maxRows is always unlimited (0):
// the cursor-based DECLARE/FETCH idiom is exposed separately via
// Conn.Query/Conn.Exec on a literal DECLARE CURSOR statement, per the
// simple query protocol.
func (c *Conn) executePortal(ctx context.Context, stmtName string, paramValues [][]byte, retrieveColumnMetadata bool) (*Cursor, error) {
	if err := c.requireState(StateReady); err != nil {
		return nil, err
	}
	c.state = StateBusy
	c.ctxR.ctx = ctx

	portalName := c.nextPortalName()

	bindFrame := protocol.EncodeBind(&c.writer, portalName, stmtName, paramValues)
	if _, err := c.transport.Write(ctx, bindFrame); err != nil {
		c.state = StateReady
		return nil, connectionClosed(err)
	}

	if retrieveColumnMetadata {
		describeFrame := protocol.EncodeDescribe(&c.writer, protocol.ClosePortal, portalName)
		if _, err := c.transport.Write(ctx, describeFrame); err != nil {
			c.state = StateReady
			return nil, connectionClosed(err)
		}
	}

	executeFrame := protocol.EncodeExecute(&c.writer, portalName, 0)
	if _, err := c.transport.Write(ctx, executeFrame); err != nil {
		c.state = StateReady
		return nil, connectionClosed(err)
	}
	syncFrame := protocol.EncodeSync(&c.writer)
	if _, err := c.transport.Write(ctx, syncFrame); err != nil {
		c.state = StateReady
		return nil, connectionClosed(err)
	}

	cur := &Cursor{conn: c, portalName: portalName, usesPortal: true}
	if retrieveColumnMetadata {
		if err := c.readRowDescription(ctx, cur); err != nil {
			c.state = StateReady
			return nil, err
		}
	}
	return cur, nil
}

// readRowDescription reads the single RowDescription-or-NoData message a
// portal-level Describe always produces before any row data (the preceding
// BindComplete is skipped by readResultMessage), so column
// metadata (Cursor.Columns) is available to the caller immediately
// without reading ahead into the result's DataRow frames — Describe's
// response is schema, not a row, so consuming it here doesn't touch the
// Laziness invariant Cursor.Next upholds.
func (c *Conn) readRowDescription(ctx context.Context, cur *Cursor) error {
	tag, body, err := c.readResultMessage(ctx)
	if err != nil {
		return err
	}
	switch tag {
	case protocol.RowDescription:
		fields, derr := protocol.DecodeRowDescription(body)
		if derr != nil {
			return pgerror.Protocol("%v", derr)
		}
		cur.columns = columnMetadataFromFields(fields)
		return nil

	case protocol.NoData:
		cur.columns = nil
		return nil

	case protocol.ErrorResponse:
		fields, derr := protocol.DecodeNoticeOrError(body)
		if derr != nil {
			return pgerror.Protocol("%v", derr)
		}
		if ferr := cur.finish(ctx); ferr != nil {
			return ferr
		}
		return pgerror.Server(fields)

	default:
		cur.exhausted = true
		return pgerror.Protocol("unexpected message %v while describing result shape", tag)
	}
}

// queryUnprepared runs sql through the simple query protocol: no bind
// parameters, no named portal to close afterward.
func (c *Conn) queryUnprepared(ctx context.Context, sql string) (*Cursor, error) {
	if err := c.requireState(StateReady); err != nil {
		return nil, err
	}
	c.state = StateBusy
	c.ctxR.ctx = ctx

	frame := protocol.EncodeQuery(&c.writer, sql)
	if _, err := c.transport.Write(ctx, frame); err != nil {
		c.state = StateReady
		return nil, connectionClosed(err)
	}

	return &Cursor{conn: c}, nil
}

// readResultMessage reads the next backend message, handling the ambient
// ParameterStatus/BackendKeyData/NoticeResponse messages that may be
// interleaved anywhere in a result stream, skipping the BindComplete that
// acknowledges a portal's Bind, and returns the first message
// that actually bears on result-set iteration (RowDescription, NoData,
// DataRow, CommandComplete, EmptyQueryResponse, ErrorResponse, or anything
// unrecognized).
func (c *Conn) readResultMessage(ctx context.Context) (protocol.BackendTag, []byte, error) {
	c.ctxR.ctx = ctx
	for {
		tag, body, err := c.reader.ReadMessage()
		if err != nil {
			return 0, nil, connectionClosed(err)
		}

		switch tag {
		case protocol.ParameterStatus:
			ps, err := protocol.DecodeParameterStatus(body)
			if err != nil {
				return 0, nil, pgerror.Protocol("%v", err)
			}
			c.runtimeParameters[ps.Name] = ps.Value
			c.warnOnUnsupportedSessionSetting(ps)

		case protocol.BackendKeyData:
			bk, err := protocol.DecodeBackendKeyData(body)
			if err != nil {
				return 0, nil, pgerror.Protocol("%v", err)
			}
			c.backendPID = bk.ProcessID
			c.backendSecretKey = bk.SecretKey

		case protocol.NoticeResponse:
			fields, err := protocol.DecodeNoticeOrError(body)
			if err != nil {
				return 0, nil, pgerror.Protocol("%v", err)
			}
			c.logger.Infof("pgwire: notice: %s", fields[protocol.FieldMessage])

		case protocol.BindComplete:
			// acknowledges the Bind sent by executePortal; carries no data.

		default:
			return tag, body, nil
		}
	}
}

// parseRowsAffected extracts the trailing row count from a command tag
// ("SELECT 3" -> 3, "INSERT 0 5" -> 5, "CREATE TABLE" -> 0).
func parseRowsAffected(tag string) int64 {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
