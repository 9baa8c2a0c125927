// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors themselves.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row addressed by id or by a unique
// field does not exist. Handlers should translate this into a 404,
// except for login lookups which must answer 401.
var ErrNotFound = errors.New("not found")

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// UniqueViolationError reports that an insert or update hit a unique
// index. Column names the offending column so callers can produce a
// field specific message.
type UniqueViolationError struct {
	Table  string
	Column string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s.%s already exists", e.Table, e.Column)
}

// uniqueColumns maps unique index names (see database/schema.go) to the
// column they guard.
var uniqueColumns = map[string]string{
	"uq_users_phone":     "phone_number",
	"uq_checkouts_phone": "phone_number",
	"uq_checkouts_email": "email",
}

// asUniqueViolation converts a MySQL duplicate entry error into a
// UniqueViolationError. Other errors are returned unchanged.
func asUniqueViolation(table string, err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	if column, ok := uniqueColumns[duplicateKey(me.Message)]; ok {
		return &UniqueViolationError{Table: table, Column: column}
	}
	return &UniqueViolationError{Table: table, Column: "unknown"}
}

// duplicateKey extracts the index name from a message like
// Duplicate entry 'x' for key 'checkouts.uq_checkouts_email'. Only the
// trailing key clause is read since the entry value is user input.
func duplicateKey(msg string) string {
	i := strings.LastIndex(msg, "for key ")
	if i < 0 {
		return ""
	}
	key := strings.Trim(msg[i+len("for key "):], "'`\" ")
	if dot := strings.LastIndexByte(key, '.'); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}
