// File path: internal/oracle/store_test.go
package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock"), "SYSADM"), mock
}

func TestExecute(t *testing.T) {
	store, mock := mockStore(t)
	rows := sqlmock.NewRows([]string{"RECORD_ID", "STATUS"}).
		AddRow(int64(42), "Open").
		AddRow(int64(43), "Closed")
	mock.ExpectQuery("SELECT \\* FROM SYSADM.V_ARC_PRODUCT_INQUIRY_SV").WillReturnRows(rows)

	results, err := store.Execute(context.Background(), "SELECT * FROM SYSADM.V_ARC_PRODUCT_INQUIRY_SV")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(42), results[0]["RECORD_ID"])
	assert.Equal(t, "Open", results[0]["STATUS"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteDropsRowIDColumns(t *testing.T) {
	store, mock := mockStore(t)
	rows := sqlmock.NewRows([]string{"ROWID", "ORIGINAL_ROWID", "STATUS"}).
		AddRow("AAAx", "AAAy", "Open")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	results, err := store.Execute(context.Background(), "SELECT ROWID, ORIGINAL_ROWID, STATUS FROM T")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]interface{}{"STATUS": "Open"}, results[0])
}

func TestExecuteMaterializesByteSlices(t *testing.T) {
	store, mock := mockStore(t)
	rows := sqlmock.NewRows([]string{"DESCRIPTION"}).
		AddRow([]byte("long text clob"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	results, err := store.Execute(context.Background(), "SELECT DESCRIPTION FROM T")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "long text clob", results[0]["DESCRIPTION"])
}

func TestExecuteEmptyResultSet(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"STATUS"}))

	results, err := store.Execute(context.Background(), "SELECT STATUS FROM T WHERE 1 = 0")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestExecuteQueryFailure(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("ORA-00942: table or view does not exist"))

	_, err := store.Execute(context.Background(), "SELECT * FROM MISSING_TABLE")
	require.Error(t, err)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Message, "ORA-00942")
}

func TestExecuteIterationFailure(t *testing.T) {
	store, mock := mockStore(t)
	rows := sqlmock.NewRows([]string{"STATUS"}).
		AddRow("Open").
		RowError(0, errors.New("ORA-03113: end-of-file on communication channel"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, err := store.Execute(context.Background(), "SELECT STATUS FROM T")
	require.Error(t, err)
	var execErr *ExecutionError
	assert.True(t, errors.As(err, &execErr))
}

func TestSchemaColumns(t *testing.T) {
	store, mock := mockStore(t)
	rows := sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
		AddRow("V_ARC_PRODUCT_INQUIRY_SV", "Date Opened", "DATE").
		AddRow("V_ARC_PRODUCT_INQUIRY_SV", "Status", "VARCHAR2").
		AddRow("V_ARC_EMIR_SV", "CIC", "VARCHAR2")
	mock.ExpectQuery("FROM all_tab_columns").WithArgs("SYSADM").WillReturnRows(rows)

	cols, err := store.SchemaColumns(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "V_ARC_PRODUCT_INQUIRY_SV", cols[0].TableName)
	assert.Equal(t, "Date Opened", cols[0].ColumnName)
	assert.Equal(t, "DATE", cols[0].Datatype)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaColumnsDefaultsOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewStore(sqlx.NewDb(db, "sqlmock"), "")

	mock.ExpectQuery("FROM all_tab_columns").WithArgs("SYSADM").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	cols, err := store.SchemaColumns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cols)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaColumnsQueryFailure(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectQuery("FROM all_tab_columns").WillReturnError(errors.New("ORA-01017: invalid username/password"))

	_, err := store.SchemaColumns(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read schema columns")
}
