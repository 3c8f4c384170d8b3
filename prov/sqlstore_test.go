package prov

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinpipe/clinpipe/op"
)

func TestSQLStoreInit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS prov_records").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewSQLStore(db)
	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	g := NewGraph()
	desc := op.Descriptor{ID: "op-1", Name: "split", Version: "1.0.0"}
	require.NoError(t, g.Add("sent-1", desc, []string{"raw-1"}))

	descJSON, err := json.Marshal(desc)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO prov_records")
	mock.ExpectExec("INSERT OR IGNORE INTO prov_records").
		WithArgs("sent-1", string(descJSON), `["raw-1"]`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewSQLStore(db)
	require.NoError(t, store.Save(context.Background(), g))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	desc := op.Descriptor{ID: "op-1", Name: "split"}
	descJSON, err := json.Marshal(desc)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"output_id", "op_descriptor", "input_ids"}).
		AddRow("sent-1", string(descJSON), `["raw-1"]`).
		AddRow("ent-1", string(descJSON), `["sent-1"]`)
	mock.ExpectQuery("SELECT output_id, op_descriptor, input_ids FROM prov_records").
		WillReturnRows(rows)

	store := NewSQLStore(db)
	g, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	got, err := g.OperationOf("ent-1")
	require.NoError(t, err)
	assert.Equal(t, "split", got.Name)
	assert.Equal(t, []string{"raw-1", "sent-1"}, g.Ancestors("ent-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreLoadRejectsCorruptRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"output_id", "op_descriptor", "input_ids"}).
		AddRow("sent-1", "{not json", `["raw-1"]`)
	mock.ExpectQuery("SELECT output_id, op_descriptor, input_ids FROM prov_records").
		WillReturnRows(rows)

	store := NewSQLStore(db)
	_, err = store.Load(context.Background())
	assert.Error(t, err)
}
