// Package statsink implements the Statistics Hooks module (spec §2): an
// opt-in event sink that every pass fires into as it runs, with "no
// semantic effect" (spec §2's "no semantic effect", §6.4's "hook call
// sites remain compile-time constants at the cost of a single monomorphic
// call"). The default sink is a no-op; callers that want the events wire
// in a concrete Sink.
//
// Grounded on _examples/original_source/ir/stat/firmstat.c and
// firmstat_t.h: one process-wide hook table, cheap when disabled, that
// every other module calls into unconditionally. The concrete sinks are
// grounded on the teacher's internal/database.DatabaseModule (connection
// dispatch keyed on a type/DSN prefix) and, for the live broadcaster, the
// teacher's gorilla/websocket usage in internal/network.
package statsink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gorilla/websocket"
)

// Event is one fired hook: a pass touching one node/graph in a way the
// spec's statistics module cares about (nodes created, opcodes optimized
// away, blocks merged, and so on).
type Event struct {
	Pass   string // e.g. "verify", "localopt", "jumpthread", "ssarecon", "transform", "gc"
	Kind   string // e.g. "node_create", "opt_cse", "block_merge"
	Entity string // owning graph's entity name
	Detail string
	Count  int
	Fired  time.Time
}

// Sink receives fired hook events. Hook must not block the caller for
// long or panic. Hook runs on the caller's goroutine; WSSink, for one,
// writes to its clients synchronously inside Hook.
type Sink interface {
	Hook(Event)
}

// nopSink is the default: every call is a no-op, matching spec's
// zero-semantic-effect requirement even when a concrete sink was never
// installed.
type nopSink struct{}

func (nopSink) Hook(Event) {}

var (
	mu      sync.RWMutex
	current Sink = nopSink{}
)

// Set installs sink as the process-wide hook target. Passing nil restores
// the no-op default. Process-global by spec §5's shared-resource policy
// ("the statistics hook table" is mutated only under explicit user
// control), so callers should install a sink during setup, not mid-pass.
func Set(sink Sink) {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		sink = nopSink{}
	}
	current = sink
}

// Current returns the installed sink.
func Current() Sink {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Fire is the call site every pass uses. With the default sink installed
// this is a single interface call into a method that does nothing.
func Fire(e Event) {
	Current().Hook(e)
}

// SQLSink persists fired events to a SQL database, one row per event, the
// way internal/database.DatabaseModule.Connect dispatches on a database
// type string to build a DSN and open a *sql.DB. Here the dispatch key is
// a DSN prefix instead of a separate type argument, since a sink is
// opened from one connection string.
type SQLSink struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLSink opens dsn against the driver implied by its prefix
// (sqlite:, postgres:, mysql:, sqlserver:) and creates the hook_events
// table if absent. An empty dsn opens an in-memory SQLite database (this
// package's default database/sql sink, per SPEC_FULL's DOMAIN STACK
// entry).
func OpenSQLSink(dsn string) (*SQLSink, error) {
	driver, source, err := splitDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("statsink: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("statsink: ping %s: %w", driver, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS hook_events (
		pass TEXT, kind TEXT, entity TEXT, detail TEXT, count INTEGER, fired_at TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statsink: create schema: %w", err)
	}

	return &SQLSink{db: db}, nil
}

func splitDSN(dsn string) (driver, source string, err error) {
	switch {
	case dsn == "":
		return "sqlite3", ":memory:", nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite:"), nil
	case strings.HasPrefix(dsn, "postgres:"):
		return "postgres", strings.TrimPrefix(dsn, "postgres:"), nil
	case strings.HasPrefix(dsn, "mysql:"):
		return "mysql", strings.TrimPrefix(dsn, "mysql:"), nil
	case strings.HasPrefix(dsn, "sqlserver:"):
		return "sqlserver", dsn, nil
	default:
		return "", "", fmt.Errorf("statsink: unrecognized DSN prefix in %q", dsn)
	}
}

// Hook inserts e as a row. Errors are swallowed (a statistics sink must
// never be why a pass fails), mirroring spec's "no semantic effect".
func (s *SQLSink) Hook(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.db.Exec(
		`INSERT INTO hook_events (pass, kind, entity, detail, count, fired_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Pass, e.Kind, e.Entity, e.Detail, e.Count, e.Fired.Format(time.RFC3339Nano),
	)
}

// Close releases the underlying connection.
func (s *SQLSink) Close() error { return s.db.Close() }

// WSSink broadcasts fired events as JSON frames to every connected
// dashboard client: a live pass-progress view rather than a dumper (spec
// §1/§6.4 keep dumpers out of scope; this module only ever streams the
// hook table's own events, never graph contents).
type WSSink struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewWSSink() *WSSink {
	return &WSSink{clients: make(map[*websocket.Conn]struct{})}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Upgrade accepts a dashboard connection and registers it to receive every
// subsequently fired event as a JSON frame.
func (s *WSSink) Upgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("statsink: upgrade: %w", err)
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Hook marshals e and writes it to every connected client, dropping (and
// closing) any client whose write fails.
func (s *WSSink) Hook(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// Clients returns the number of currently connected dashboard clients.
func (s *WSSink) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client.
func (s *WSSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}
