package export

import (
	"strings"
	"testing"
	"time"

	"advocacy-backend/models"
)

func TestBuildQuotesEveryField(t *testing.T) {
	out := Build([]string{"ID", "Full Name"}, [][]string{
		{"a", "Alice Smith"},
		{"b", "Bob O'Neil"},
	})

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != `"ID","Full Name"` {
		t.Errorf("unexpected header line: %q", lines[0])
	}
	if lines[1] != `"a","Alice Smith"` {
		t.Errorf("unexpected data line: %q", lines[1])
	}
	if !strings.HasSuffix(out, "\r\n") {
		t.Error("output should end with CRLF")
	}
}

func TestBuildDoublesEmbeddedQuotes(t *testing.T) {
	out := Build([]string{"Name"}, [][]string{{`Dana "DJ" Jones`}})

	want := `"Dana ""DJ"" Jones"`
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got %q", want, out)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	got := Filename("before_you_sign-submissions", now)
	if got != "before_you_sign-submissions-2026-08-31.csv" {
		t.Errorf("unexpected filename: %s", got)
	}
}

func TestSubmissionRowsMatchHeader(t *testing.T) {
	synced := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	submissions := []models.Submission{
		{
			ID:              "a",
			FullName:        "Alice",
			Email:           "alice@example.com",
			NewsletterOptIn: true,
			CreatedAt:       time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
			SyncedAt:        &synced,
		},
		{
			ID:        "b",
			FullName:  "Bob",
			Email:     "bob@example.com",
			CreatedAt: time.Date(2026, 5, 1, 9, 31, 0, 0, time.UTC),
		},
	}

	rows := SubmissionRows(submissions)
	if len(rows) != 2 {
		t.Fatalf("expected one row per submission, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != len(SubmissionHeader) {
			t.Errorf("row %d: %d fields, header has %d", i, len(row), len(SubmissionHeader))
		}
	}

	if rows[0][3] != "Yes" || rows[1][3] != "No" {
		t.Errorf("unexpected opt-in rendering: %q, %q", rows[0][3], rows[1][3])
	}
	if rows[0][16] != "2026-05-02T10:00:00Z" {
		t.Errorf("unexpected synced-at: %q", rows[0][16])
	}
	if rows[1][16] != "" {
		t.Errorf("unsynced row should have an empty synced-at, got %q", rows[1][16])
	}
}

func TestSignatureRowsMatchHeader(t *testing.T) {
	signatures := []models.Signature{
		{
			ID:         "s1",
			PetitionID: "p1",
			FullName:   "Carol",
			Email:      "carol@example.com",
			CreatedAt:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	rows := SignatureRows(signatures)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if len(rows[0]) != len(SignatureHeader) {
		t.Errorf("row has %d fields, header has %d", len(rows[0]), len(SignatureHeader))
	}
	if rows[0][1] != "p1" {
		t.Errorf("unexpected petition id column: %q", rows[0][1])
	}
}
