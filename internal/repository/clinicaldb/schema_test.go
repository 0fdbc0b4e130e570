package clinicaldb

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockDBWithDriver(t *testing.T, driver string) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithConn(conn, driver, logger), mock
}

func TestSnapshotSQLite(t *testing.T) {
	db, mock := newMockDBWithDriver(t, DriverLibSQL)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT sql FROM sqlite_master WHERE type='table'")).
		WillReturnRows(sqlmock.NewRows([]string{"sql"}).
			AddRow("CREATE TABLE Demography (patient_id TEXT, age INTEGER)").
			AddRow("CREATE TABLE AdverseEvents (patient_id TEXT, event TEXT)").
			AddRow(nil)) // internal tables store NULL creation text

	schema, err := db.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := "CREATE TABLE Demography (patient_id TEXT, age INTEGER)\nCREATE TABLE AdverseEvents (patient_id TEXT, event TEXT)"
	if schema != want {
		t.Errorf("Snapshot() = %q, want %q", schema, want)
	}
	assertExpectations(t, mock)
}

func TestSnapshotSQLiteEmptyDatabase(t *testing.T) {
	db, mock := newMockDBWithDriver(t, DriverLibSQL)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT sql FROM sqlite_master WHERE type='table'")).
		WillReturnRows(sqlmock.NewRows([]string{"sql"}))

	schema, err := db.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if schema != "" {
		t.Errorf("Snapshot() = %q, want empty for table-less database", schema)
	}
	assertExpectations(t, mock)
}

func TestSnapshotSQLitePropagatesError(t *testing.T) {
	db, mock := newMockDBWithDriver(t, DriverLibSQL)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT sql FROM sqlite_master WHERE type='table'")).
		WillReturnError(sql.ErrConnDone)

	if _, err := db.Snapshot(context.Background()); err == nil {
		t.Fatal("Snapshot() error = nil, want catalog error")
	}
	assertExpectations(t, mock)
}

func TestSnapshotPostgresReconstructsCreateStatements(t *testing.T) {
	db, mock := newMockDBWithDriver(t, DriverPostgres)

	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("adverseevents").
			AddRow("demography"))

	mock.ExpectQuery("SELECT column_name, data_type, is_nullable").
		WithArgs("adverseevents").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("patient_id", "text", "NO").
			AddRow("event", "text", "YES"))

	mock.ExpectQuery("SELECT column_name, data_type, is_nullable").
		WithArgs("demography").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("patient_id", "text", "NO").
			AddRow("age", "integer", "YES"))

	schema, err := db.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := "CREATE TABLE adverseevents (\n" +
		"    patient_id text NOT NULL,\n" +
		"    event text\n" +
		");\n" +
		"CREATE TABLE demography (\n" +
		"    patient_id text NOT NULL,\n" +
		"    age integer\n" +
		");"
	if schema != want {
		t.Errorf("Snapshot() = %q, want %q", schema, want)
	}
	assertExpectations(t, mock)
}
