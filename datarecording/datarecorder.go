// Package datarecording stores simulation records, such as burst traces and
// engine counters, in SQLite tables whose schemas are derived from Go structs.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// ErrUnsupportedField is returned when a table entry has a field that cannot
// be stored in a column.
var ErrUnsupportedField = errors.New("unsupported field type")

// defaultBatchSize is the number of buffered entries that triggers a flush.
const defaultBatchSize = 100000

// DataRecorder buffers rows in memory and writes them to the database in
// batches. Each table holds one flat struct type whose exported fields become
// the columns.
type DataRecorder interface {
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry. The entry must have the type of the
	// table's sample entry.
	InsertData(tableName string, entry any)

	ListTables() []string
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// New creates a DataRecorder that writes to path + ".sqlite3". An empty path
// gets a unique name. It panics if the file already exists.
func New(path string) DataRecorder {
	if path == "" {
		path = "ringdma_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		log.Panicf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		log.Panic(err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	return NewWithDB(db)
}

// NewWithDB creates a DataRecorder on an open database. The buffered rows
// are flushed when the process exits through atexit.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(w.Flush)

	return w
}

type table struct {
	rowType reflect.Type
	insert  string
	pending []any
}

type sqliteWriter struct {
	db        *sql.DB
	tables    map[string]*table
	batchSize int
	pending   int
	closed    bool
}

func columnKindAllowed(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	rowType := reflect.TypeOf(entry)
	if rowType == nil || rowType.Kind() != reflect.Struct {
		return fmt.Errorf("%w: entry must be a struct", ErrUnsupportedField)
	}

	for _, field := range reflect.VisibleFields(rowType) {
		switch {
		case !field.IsExported():
			return fmt.Errorf("%w: field %s is not exported",
				ErrUnsupportedField, field.Name)
		case !columnKindAllowed(field.Type.Kind()):
			return fmt.Errorf("%w: field %s has kind %s",
				ErrUnsupportedField, field.Name, field.Type.Kind())
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		log.Panic(err)
	}

	if _, exists := w.tables[tableName]; exists {
		log.Panicf("table %s already exists", tableName)
	}

	columns := structs.Names(sampleEntry)
	w.mustExec(fmt.Sprintf("CREATE TABLE %s (%s);",
		tableName, strings.Join(columns, ", ")))

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(columns)), ", ")

	w.tables[tableName] = &table{
		rowType: reflect.TypeOf(sampleEntry),
		insert: fmt.Sprintf("INSERT INTO %s VALUES (%s)",
			tableName, placeholders),
	}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		log.Panicf("table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != t.rowType {
		log.Panicf("entry type %s does not match table %s",
			reflect.TypeOf(entry), tableName)
	}

	t.pending = append(t.pending, entry)

	w.pending++
	if w.pending >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Flush writes all the pending rows in one transaction.
func (w *sqliteWriter) Flush() {
	if w.pending == 0 || w.closed {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		log.Panic(err)
	}

	for _, name := range w.ListTables() {
		if err := w.tables[name].writeTo(tx); err != nil {
			_ = tx.Rollback()
			log.Panicf("writing table %s: %v", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Panic(err)
	}

	w.pending = 0
}

func (t *table) writeTo(tx *sql.Tx) error {
	if len(t.pending) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(t.insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range t.pending {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return err
		}
	}

	t.pending = nil

	return nil
}

func (w *sqliteWriter) Close() error {
	if w.closed {
		return nil
	}

	w.Flush()
	w.closed = true

	return w.db.Close()
}

func (w *sqliteWriter) mustExec(query string) {
	if _, err := w.db.Exec(query); err != nil {
		log.Panicf("executing %q: %v", query, err)
	}
}
