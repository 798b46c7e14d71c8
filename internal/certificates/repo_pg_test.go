package certificates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"certificate-backend/internal/terms"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	cert := Certificate{
		ID:               "cert-1",
		UserID:           "user-1",
		OriginalFilename: "diploma.jpg",
		Extension:        "jpg",
		MimeType:         "image/jpeg",
		Checksum:         "abc123",
		FileName:         "r4nd0m",
		CourseURL:        "https://courses.example.com/go",
		CourseTitle:      "Go Fundamentals",
		ImageIcon:        []byte{0xff, 0xd8},
		GeneralStatus:    StatusVerifying,
		CreatedAt:        created,
	}

	mock.ExpectExec("INSERT INTO certificates").
		WithArgs(
			"cert-1", "user-1", "diploma.jpg", "jpg", "image/jpeg", "abc123",
			"r4nd0m", "https://courses.example.com/go", "Go Fundamentals",
			[]byte{0xff, 0xd8}, "VERIFYING", nullString(""), nullString(""), created,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), cert); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoFinalizeCommitsStatusBlobAndAssociations(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	// The status update only lands while the record is still VERIFYING.
	mock.ExpectExec("UPDATE certificates").
		WithArgs("VERIFIED", nullString(""), nullString("SUCCESS"), "cert-1", "VERIFYING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO certificate_blobs").
		WithArgs("cert-1", []byte("file bytes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_terms").
		WithArgs("ut-1", "user-1", "term-go", "cert-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_terms").
		WithArgs("ut-2", "user-1", "term-sql", "cert-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	err = repo.Finalize(context.Background(), Finalization{
		Certificate: Certificate{
			ID:            "cert-1",
			GeneralStatus: StatusVerified,
			FrontStatus:   FrontSuccess,
		},
		Content: []byte("file bytes"),
		Associations: []terms.UserTerm{
			{ID: "ut-1", UserID: "user-1", TermID: "term-go", CertificateID: "cert-1", MatchCount: 3},
			{ID: "ut-2", UserID: "user-1", TermID: "term-sql", CertificateID: "cert-1", MatchCount: 1},
		},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoFinalizeSkipsBlobWhenStorageFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE certificates").
		WithArgs("REJECTED", nullString("FILE_PATH_ERROR"), nullString("FILE_PATH_ERROR"), "cert-1", "VERIFYING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	err = repo.Finalize(context.Background(), Finalization{
		Certificate: Certificate{
			ID:             "cert-1",
			GeneralStatus:  StatusRejected,
			DetailedStatus: DetailedFilePathError,
			FrontStatus:    FrontStatus(DetailedFilePathError),
		},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoFinalizeSkipsAttachmentsWhenRecordAlreadyTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	// Guard misses: the record already left VERIFYING, so neither the
	// blob nor the associations may be written.
	mock.ExpectExec("UPDATE certificates").
		WithArgs("VERIFIED", nullString(""), nullString("SUCCESS"), "cert-1", "VERIFYING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	err = repo.Finalize(context.Background(), Finalization{
		Certificate: Certificate{
			ID:            "cert-1",
			GeneralStatus: StatusVerified,
			FrontStatus:   FrontSuccess,
		},
		Content: []byte("file bytes"),
		Associations: []terms.UserTerm{
			{ID: "ut-1", UserID: "user-1", TermID: "term-go", CertificateID: "cert-1", MatchCount: 3},
		},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoFinalizeRollsBackOnUpdateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE certificates").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	err = repo.Finalize(context.Background(), Finalization{
		Certificate: Certificate{ID: "cert-1", GeneralStatus: StatusVerified, FrontStatus: FrontSuccess},
		Content:     []byte("file bytes"),
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM certificates").
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListByUserScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "original_filename", "extension", "mime_type", "checksum",
		"file_name", "course_url", "course_title", "image_icon",
		"general_status", "detailed_status", "front_status", "created_at",
	}).AddRow(
		"cert-1", "user-1", "diploma.jpg", "jpg", "image/jpeg", "abc",
		"r4nd0m", "https://courses.example.com/go", "Go", []byte{0x01},
		"REJECTED", "EXTENSION_NOT_ALLOWED", "EXTENSION_NOT_ALLOWED", created,
	)
	mock.ExpectQuery("SELECT (.+) FROM certificates").
		WithArgs("user-1", 20, 0).
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	got, err := repo.ListByUser(context.Background(), "user-1", 0, -3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0].DetailedStatus != DetailedExtensionNotAllowed {
		t.Fatalf("detailed = %s", got[0].DetailedStatus)
	}
	if got[0].FrontStatus != FrontStatus(DetailedExtensionNotAllowed) {
		t.Fatalf("front = %s", got[0].FrontStatus)
	}
}

func TestPGRepoExpireStuck(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	cutoff := time.Date(2026, 2, 10, 11, 30, 0, 0, time.UTC)
	mock.ExpectQuery("UPDATE certificates").
		WithArgs("REJECTED", "VERIFICATION_TIMEOUT", "VERIFYING", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cert-1").AddRow("cert-2"))

	repo := &PGRepo{DB: db}
	ids, err := repo.ExpireStuck(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if len(ids) != 2 || ids[0] != "cert-1" || ids[1] != "cert-2" {
		t.Fatalf("ids = %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
