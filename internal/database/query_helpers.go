package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// QueryRowSingle runs a single-row query. No rows is not an error: it returns
// nil, nil.
func QueryRowSingle[T any](
	db *sql.DB,
	query string,
	scanFunc func(rowScanner) (*T, error),
	logger utils.Logger,
	logContext string,
	args ...any,
) (*T, error) {
	result, err := scanFunc(db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error(fmt.Sprintf("Failed to query row: %v", err), logContext)
		return nil, err
	}

	return result, nil
}

// QueryRows runs a multi-row query. Rows that fail to scan are logged and
// skipped.
func QueryRows[T any](
	db *sql.DB,
	query string,
	scanFunc func(rowScanner) (*T, error),
	logger utils.Logger,
	logContext string,
	args ...any,
) ([]*T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to query rows: %v", err), logContext)
		return nil, err
	}
	defer rows.Close()

	results := []*T{}
	for rows.Next() {
		result, err := scanFunc(rows)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to scan row: %v", err), logContext)
			continue
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		logger.Error(fmt.Sprintf("Error iterating rows: %v", err), logContext)
		return nil, err
	}

	return results, nil
}

// ExecWithLogging executes a statement, logging failures.
func ExecWithLogging(
	db *sql.DB,
	query string,
	logger utils.Logger,
	logContext string,
	args ...any,
) (sql.Result, error) {
	result, err := db.Exec(query, args...)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to execute query: %v", err), logContext)
		return nil, err
	}
	return result, nil
}

// ExecWithAffectedRowsCheck executes an UPDATE or DELETE and returns
// sql.ErrNoRows when nothing matched.
func ExecWithAffectedRowsCheck(
	db *sql.DB,
	query string,
	logger utils.Logger,
	logContext string,
	args ...any,
) (int64, error) {
	result, err := ExecWithLogging(db, query, logger, logContext, args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rowsAffected == 0 {
		return 0, sql.ErrNoRows
	}

	return rowsAffected, nil
}

func ScanNullableString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
