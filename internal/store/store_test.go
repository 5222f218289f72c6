package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer-geo/internal/volunteer"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return AttachDB(db), mock
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = RowFromRaw(volunteer.Raw{"Name": "V", "District": "Kanpur"})
	}
	return rows
}

var upsertPattern = regexp.QuoteMeta("INSERT INTO volunteers")

func expectBatch(mock sqlmock.Sqlmock, size int, failAt int) {
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(upsertPattern)
	for j := 0; j < size; j++ {
		if j == failAt {
			prep.ExpectExec().WillReturnError(errors.New("invalid input syntax"))
			mock.ExpectRollback()
			return
		}
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
}

func TestRowFromRaw(t *testing.T) {
	id := uuid.NewString()
	row := RowFromRaw(volunteer.Raw{
		"id":                 id,
		"Column2":            "Ravi",
		"Column3":            float64(9123456789),
		"Column4":            "Kanpur",
		"Column5":            "Kalyanpur",
		"वेरिफिकेशन स्टेटस ": "Verified",
	})
	assert.Equal(t, Row{ID: id, Name: "Ravi", Mobile: "9123456789", District: "Kanpur", VidhanSabha: "Kalyanpur", VerificationStatus: "Verified"}, row)
}

func TestRowFromRaw_FormExtras(t *testing.T) {
	row := RowFromRaw(volunteer.Raw{
		"Column2":    "Ravi",
		"Column6":    float64(24),
		"Column13":   "ravi@example.com",
		"Column14":   "B.Tech",
		"Timestamp":  "2024/01/05 10:11:12",
		"बातचीत के दौरान उसका माइंडसेट कैसा है ": "positive",
	})
	require.NotNil(t, row.Age)
	assert.Equal(t, "24", *row.Age)
	require.NotNil(t, row.Email)
	assert.Equal(t, "ravi@example.com", *row.Email)
	require.NotNil(t, row.Qualification)
	assert.Equal(t, "B.Tech", *row.Qualification)
	require.NotNil(t, row.SubmittedAt)
	assert.Equal(t, "2024/01/05 10:11:12", *row.SubmittedAt)
	require.NotNil(t, row.Mindset)
	assert.Equal(t, "positive", *row.Mindset)
	assert.Nil(t, row.Role)
	assert.Nil(t, row.SocialMedia)
	assert.Nil(t, row.CanVisitOffice)
}

func TestRowFromRaw_Defaults(t *testing.T) {
	row := RowFromRaw(volunteer.Raw{"id": "not-a-uuid", "Name": "A"})
	_, err := uuid.Parse(row.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pending", row.VerificationStatus)
	assert.Equal(t, volunteer.Unknown, row.District)
}

func TestBatches(t *testing.T) {
	rows := make([]Row, 250)
	b := Batches(rows, BatchSize)
	require.Len(t, b, 3)
	assert.Len(t, b[0], 100)
	assert.Len(t, b[2], 50)

	assert.Empty(t, Batches(nil, 10))
	assert.Len(t, Batches(rows, 0), 3)
}

func TestInsertBatch_AllCommitted(t *testing.T) {
	s, mock := newMockStore(t)
	expectBatch(mock, 100, -1)
	expectBatch(mock, 20, -1)

	n, err := s.InsertBatch(context.Background(), makeRows(120), 1)
	require.NoError(t, err)
	assert.Equal(t, 120, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_FailedBatchDoesNotStopOthers(t *testing.T) {
	s, mock := newMockStore(t)
	expectBatch(mock, 100, -1)
	expectBatch(mock, 100, 0)
	expectBatch(mock, 100, -1)

	n, err := s.InsertBatch(context.Background(), makeRows(300), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2")
	assert.NotContains(t, err.Error(), "batch 3")
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Equal(t, 200, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_KeepsInsertionOrder(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "name", "mobile", "district", "vidhan_sabha", "verification_status"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM volunteers ORDER BY seq")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "Ravi", "9123456789", "Kanpur", "Kalyanpur", "Pending").
			AddRow("b2", "Seema", "", "Lucknow", "Lucknow Central", "Verified"))

	raws, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 2)
	recs := volunteer.Prepare(raws)
	assert.Equal(t, "a1", recs[0].ID)
	assert.Equal(t, "Ravi", recs[0].Name)
	assert.Equal(t, "Kalyanpur", recs[0].Constituency)
	assert.Equal(t, "b2", recs[1].ID)
	assert.Equal(t, "Lucknow", recs[1].District)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))
	_, err := s.List(context.Background())
	assert.ErrorContains(t, err, "list volunteers")
}

func TestCount(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM volunteers")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
