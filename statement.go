package pgwire

import (
	"context"

	"github.com/wtemperley/pgwire/internal/protocol"
	"github.com/wtemperley/pgwire/pgerror"
)

// Statement is a server-side prepared statement created by Conn.Prepare.
// It can be bound and executed any number of times via Query/Execute
// before being closed, saving the parse/plan cost of a one-shot query.
type Statement struct {
	conn   *Conn
	name   string
	sql    string
	closed bool

	paramOIDs     []int32
	resultColumns []ColumnMetadata
}

// ParameterOIDs returns the type OID the server inferred for each
// parameter placeholder, in order, captured from ParameterDescription.
func (s *Statement) ParameterOIDs() []int32 { return s.paramOIDs }

// ResultColumns describes the shape of rows this statement produces when
// executed, captured from RowDescription (or nil, from NoData, for a
// statement that returns no rows).
func (s *Statement) ResultColumns() []ColumnMetadata { return s.resultColumns }

// Prepare parses sql into a named, reusable server-side prepared
// statement, letting the server infer each parameter's type, and
// describes it immediately so parameter OIDs and the result row shape are
// known before the statement is ever bound.
func (c *Conn) Prepare(ctx context.Context, sql string) (*Statement, error) {
	if err := c.requireState(StateReady); err != nil {
		return nil, err
	}
	c.state = StateBusy
	defer func() { c.state = StateReady }()

	name := c.nextStatementName()
	c.ctxR.ctx = ctx

	parseFrame := protocol.EncodeParse(&c.writer, name, sql, nil)
	if _, err := c.transport.Write(ctx, parseFrame); err != nil {
		return nil, connectionClosed(err)
	}
	describeFrame := protocol.EncodeDescribe(&c.writer, protocol.CloseStatement, name)
	if _, err := c.transport.Write(ctx, describeFrame); err != nil {
		return nil, connectionClosed(err)
	}
	syncFrame := protocol.EncodeSync(&c.writer)
	if _, err := c.transport.Write(ctx, syncFrame); err != nil {
		return nil, connectionClosed(err)
	}

	stmt := &Statement{conn: c, name: name, sql: sql}
	err := c.drainUntilReady(ctx, func(tag protocol.BackendTag, body []byte) (bool, error) {
		switch tag {
		case protocol.ParameterDescription:
			oids, err := protocol.DecodeParameterDescription(body)
			if err != nil {
				return false, pgerror.Protocol("%v", err)
			}
			stmt.paramOIDs = oids

		case protocol.RowDescription:
			fields, err := protocol.DecodeRowDescription(body)
			if err != nil {
				return false, pgerror.Protocol("%v", err)
			}
			stmt.resultColumns = columnMetadataFromFields(fields)

		case protocol.NoData:
			stmt.resultColumns = nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

// Query binds params and executes the statement through the extended
// protocol, requesting row metadata, and returns a Cursor for row-by-row
// retrieval. The Cursor must be closed before the connection can be used
// for anything else.
func (s *Statement) Query(ctx context.Context, params ...interface{}) (*Cursor, error) {
	return s.execute(ctx, params, true)
}

// Execute binds params, executes the statement for its side effects, and
// returns the number of rows affected, discarding any result rows. Row
// metadata is not requested, since a DML statement has no row shape worth
// describing.
func (s *Statement) Execute(ctx context.Context, params ...interface{}) (int64, error) {
	cur, err := s.execute(ctx, params, false)
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

func (s *Statement) execute(ctx context.Context, params []interface{}, retrieveColumnMetadata bool) (*Cursor, error) {
	if s.closed {
		return nil, pgerror.StatementClosed()
	}
	values, err := encodeParamValues(params)
	if err != nil {
		return nil, err
	}
	return s.conn.executePortal(ctx, s.name, values, retrieveColumnMetadata)
}

// Close releases the statement's server-side resources. Close is
// idempotent.
func (s *Statement) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	conn := s.conn
	if err := conn.requireState(StateReady); err != nil {
		return err
	}
	conn.state = StateBusy
	defer func() { conn.state = StateReady }()

	conn.ctxR.ctx = ctx
	closeFrame := protocol.EncodeClose(&conn.writer, protocol.CloseStatement, s.name)
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
	s.closed = true
	return nil
}

// SQL returns the original command text passed to Prepare.
func (s *Statement) SQL() string { return s.sql }
