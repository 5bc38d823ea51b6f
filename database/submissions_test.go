package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"advocacy-backend/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var submissionRowColumns = []string{
	"id", "full_name", "email", "newsletter_opt_in",
	"browser", "device_type", "screen_resolution", "timezone", "language", "ip",
	"city", "region", "country", "latitude", "longitude", "created_at", "synced_at",
}

func submissionRow(id, name string, created time.Time, synced any) []driverValue {
	return []driverValue{
		id, name, name + "@example.com", true,
		"Chrome", "Desktop", "1920x1080", "America/New_York", "en-US", "203.0.113.7",
		"Orlando", "Florida", "United States", "28.54", "-81.38", created, synced,
	}
}

type driverValue = driver.Value

func addRows(rows *sqlmock.Rows, values ...[]driverValue) *sqlmock.Rows {
	for _, v := range values {
		rows.AddRow(v...)
	}
	return rows
}

func TestCreateSubmission(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)

		mock.ExpectExec(`INSERT INTO before_you_sign_submissions`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		req := models.CreateSubmissionRequest{
			FullName:        "Alice Smith",
			Email:           "alice@example.com",
			NewsletterOptIn: true,
		}
		sub, err := service.Create(context.Background(), "before_you_sign", req)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if sub.ID == "" {
			t.Error("expected a generated submission id")
		}
		if sub.SyncedAt != nil {
			t.Error("new submission should have no sync marker")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestCreateSubmissionUnknownKind(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)

		_, err := service.Create(context.Background(), "house_flipping", models.CreateSubmissionRequest{})
		if err == nil {
			t.Fatal("expected an unknown-kind error")
		}
		if !strings.Contains(err.Error(), "unknown submission kind") {
			t.Errorf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestListSubmissionsWithSearch(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)
		created := time.Now()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scam_report_submissions WHERE`).
			WithArgs("%alice%", "%alice%", "%alice%", "%alice%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM scam_report_submissions WHERE (.+) ORDER BY created_at DESC LIMIT \? OFFSET \?`).
			WithArgs("%alice%", "%alice%", "%alice%", "%alice%", 25, 0).
			WillReturnRows(addRows(sqlmock.NewRows(submissionRowColumns),
				submissionRow("a", "Alice", created, nil)))

		submissions, total, err := service.List(context.Background(), "scam_report", "alice", 25, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || len(submissions) != 1 {
			t.Errorf("expected 1/1, got total=%d len=%d", total, len(submissions))
		}
		if submissions[0].FullName != "Alice" {
			t.Errorf("unexpected submission: %+v", submissions[0])
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestGetSubmissionNotFound(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)

		mock.ExpectQuery(`SELECT (.+) FROM before_you_sign_submissions WHERE id = \?`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := service.Get(context.Background(), "before_you_sign", "missing")
		if err == nil || err.Error() != "submission not found" {
			t.Errorf("expected submission not found, got %v", err)
		}
	})
}

func TestDeleteSubmission(t *testing.T) {
	it(func() {
		testCases := []struct {
			name          string
			rowsAffected  int64
			errorExpected bool
		}{
			{name: "existing row", rowsAffected: 1, errorExpected: false},
			{name: "missing row", rowsAffected: 0, errorExpected: true},
		}

		for _, tc := range testCases {
			service := NewSubmissionService(db)
			mock.ExpectExec(`DELETE FROM timeshare_checklist_submissions WHERE id = \?`).
				WithArgs("some-id").
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))

			err := service.Delete(context.Background(), "timeshare_checklist", "some-id")
			if tc.errorExpected && err == nil {
				t.Errorf("%s: expected an error", tc.name)
			}
			if !tc.errorExpected && err != nil {
				t.Errorf("%s: %v", tc.name, err)
			}
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestDeleteAllSubmissions(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)

		mock.ExpectExec(`DELETE FROM where_scams_thrive_submissions`).
			WillReturnResult(sqlmock.NewResult(0, 42))

		affected, err := service.DeleteAll(context.Background(), "where_scams_thrive")
		if err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}
		if affected != 42 {
			t.Errorf("expected 42 rows removed, got %d", affected)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestListUnsyncedOrdersOldestFirst(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)
		base := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM before_you_sign_submissions WHERE synced_at IS NULL ORDER BY created_at ASC`).
			WillReturnRows(addRows(sqlmock.NewRows(submissionRowColumns),
				submissionRow("a", "Alice", base, nil),
				submissionRow("b", "Bob", base.Add(time.Minute), nil)))

		submissions, err := service.ListUnsynced(context.Background(), "before_you_sign")
		if err != nil {
			t.Fatalf("ListUnsynced: %v", err)
		}
		if len(submissions) != 2 || submissions[0].ID != "a" || submissions[1].ID != "b" {
			t.Errorf("unexpected submissions: %+v", submissions)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestMarkSynced(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)
		syncedAt := time.Now().UTC()

		mock.ExpectExec(`UPDATE before_you_sign_submissions SET synced_at = \? WHERE id IN \(\?,\?,\?\)`).
			WithArgs(syncedAt, "a", "b", "c").
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := service.MarkSynced(context.Background(), "before_you_sign", []string{"a", "b", "c"}, syncedAt)
		if err != nil {
			t.Fatalf("MarkSynced: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestMarkSyncedEmptyIDs(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)

		// No expectation set: an empty id list must not touch the
		// database at all.
		if err := service.MarkSynced(context.Background(), "before_you_sign", nil, time.Now()); err != nil {
			t.Fatalf("MarkSynced: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestScanSubmissionSyncMarker(t *testing.T) {
	it(func() {
		service := NewSubmissionService(db)
		synced := time.Now().UTC()

		mock.ExpectQuery(`SELECT (.+) FROM before_you_sign_submissions WHERE id = \?`).
			WithArgs("a").
			WillReturnRows(addRows(sqlmock.NewRows(submissionRowColumns),
				submissionRow("a", "Alice", time.Now(), synced)))

		sub, err := service.Get(context.Background(), "before_you_sign", "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if sub.SyncedAt == nil || !sub.SyncedAt.Equal(synced) {
			t.Errorf("expected sync marker %v, got %v", synced, sub.SyncedAt)
		}
	})
}

func TestTableForKind(t *testing.T) {
	testCases := []struct {
		kind          string
		table         string
		errorExpected bool
	}{
		{kind: "before_you_sign", table: "before_you_sign_submissions"},
		{kind: "where_scams_thrive", table: "where_scams_thrive_submissions"},
		{kind: "timeshare_checklist", table: "timeshare_checklist_submissions"},
		{kind: "scam_report", table: "scam_report_submissions"},
		{kind: "", errorExpected: true},
		{kind: "before_you_sign; DROP TABLE users", errorExpected: true},
	}

	for _, tc := range testCases {
		table, err := TableForKind(tc.kind)
		if tc.errorExpected {
			if err == nil {
				t.Errorf("kind %q: expected an error", tc.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("kind %q: %v", tc.kind, err)
		}
		if table != tc.table {
			t.Errorf("kind %q: expected table %s, got %s", tc.kind, tc.table, table)
		}
	}
}
