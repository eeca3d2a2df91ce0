package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(&mysql.MySQLError{Number: 1062}) {
		t.Fatalf("1062 should be a duplicate key")
	}
	if IsDuplicateKey(&mysql.MySQLError{Number: 1452}) || IsDuplicateKey(errors.New("x")) {
		t.Fatalf("only 1062 is a duplicate key")
	}
	if !IsForeignKeyViolation(&mysql.MySQLError{Number: 1451}) {
		t.Fatalf("1451 should be a foreign key violation")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Fatalf("got %q", got)
	}
	if Placeholders(0) != "" {
		t.Fatalf("zero placeholders should be empty")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM location_costs").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = WithTx(context.Background(), conn, func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM location_costs WHERE city_id=?", 1)
		return err
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	for range schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := EnsureSchema(context.Background(), conn); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
