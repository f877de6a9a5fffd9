// Package sqlerr translates Postgres driver errors into client-facing errors.
package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shopapi/internal/errs"
)

// Code is a coarse class of SQLSTATE values the API cares about.
type Code string

const (
	Other               Code = "other"
	UniqueViolation     Code = "unique_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	NotNullViolation    Code = "not_null_violation"
	CheckViolation      Code = "check_violation"
)

// MapCode classifies a SQLSTATE.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	}
	return Other
}

// ErrCode returns the class of a Postgres error anywhere in err's chain.
func ErrCode(err error) Code {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return MapCode(pgErr.Code)
	}
	return Other
}

// IsUniqueViolation reports whether err is a unique violation, optionally of a given constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || MapCode(pgErr.Code) != UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsNoRows reports whether err means an empty result from either driver API.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

// HandleError converts a database error into an *errs.HTTPError.
// Errors that already are HTTP errors pass through untouched.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	if IsNoRows(err) {
		return errs.NewNotFoundError("resource not found", "")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return errs.NewInternalServerError()
	}

	code := MapCode(pgErr.Code)
	appCode := generateErrorCode(pgErr.TableName, code)
	entity := entityName(pgErr.TableName, pgErr.ColumnName)

	switch code {
	case UniqueViolation:
		msg := fmt.Sprintf("%s already exists", entity)
		if col := uniqueColumn(pgErr.ConstraintName); col != "" {
			msg = fmt.Sprintf("%s with this %s already exists", entity, strings.ToLower(humanize(col)))
		}
		return errs.NewConflictError(msg, appCode)
	case ForeignKeyViolation:
		return errs.NewBadRequestError(fmt.Sprintf("referenced %s does not exist", strings.ToLower(entity)), appCode, nil)
	case NotNullViolation:
		field := strings.ToLower(pgErr.ColumnName)
		return errs.NewBadRequestError(fmt.Sprintf("%s is required", humanize(field)), appCode,
			[]errs.FieldError{{Field: field, Error: "is required"}})
	case CheckViolation:
		return errs.NewBadRequestError("one or more values do not meet required conditions", appCode, nil)
	}
	return errs.NewInternalServerError()
}

func generateErrorCode(table string, code Code) string {
	domain := strings.ToUpper(singular(table))
	if domain == "" {
		domain = "RECORD"
	}
	action := "ERROR"
	switch code {
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}
	return domain + "_" + action
}

// entityName prefers the referenced entity of an *_id column over the table.
func entityName(table, column string) string {
	column = strings.ToLower(column)
	if strings.HasSuffix(column, "_id") {
		return humanize(strings.TrimSuffix(column, "_id"))
	}
	if table != "" {
		return humanize(singular(table))
	}
	return "Record"
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "sses"):
		return strings.TrimSuffix(s, "es")
	case strings.HasSuffix(s, "s") && len(s) > 1:
		return strings.TrimSuffix(s, "s")
	}
	return s
}

func humanize(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

var keyConstraint = regexp.MustCompile(`_([^_]+)_key$`)

// uniqueColumn infers the column from "unique_<table>_<column>" or "<table>_<column>_key".
func uniqueColumn(constraint string) string {
	if strings.HasPrefix(constraint, "unique_") {
		parts := strings.Split(constraint, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}
	if m := keyConstraint.FindStringSubmatch(constraint); len(m) > 1 {
		return m[1]
	}
	return ""
}
