package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func profileColumns() []string {
	return []string{
		"cognito_user_id", "username", "street_address", "state", "city", "zipcode",
		"gender", "age", "lat", "lng", "google_place_id", "name", "date_of_birth",
		"avatar", "is_interested_in_social", "is_interested_in_economic",
		"is_interested_in_international", "is_interested_in_local_candidates",
		"is_interested_in_state_candidates", "is_interested_in_federal_candidates",
		"is_interested_in_municipal_legislation", "is_interested_in_state_legislation",
		"is_interested_in_federal_legislation", "has_seen_tutorial",
		"average_social_score", "average_economic_score", "average_international_score",
	}
}

func TestRead_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(profileColumns()).AddRow(
		"user-1", "amber-otter", "1 Main St", "NY", "New York", "10001",
		"", 30, 40.7, -74.0, "", "Pat", "1994-01-01",
		"", true, false,
		false, false,
		false, true,
		false, false,
		true, true,
		61.5, 50.0, 50.0,
	)

	mock.ExpectQuery(`(?s)SELECT.*average_international_score.*FROM\s+users\s+u.*WHERE\s+u\.cognito_user_id\s*=\s*\$1.*GROUP\s+BY\s+u\.id`).
		WithArgs("user-1").
		WillReturnRows(rows)

	p, err := repo.Read(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if p.Username != "amber-otter" || p.State != "NY" || !p.HasSeenTutorial {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.AverageSocialScore != 61.5 || p.AverageEconomicScore != 50.0 {
		t.Fatalf("unexpected averages: %+v", p)
	}
}

func TestRead_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT.*FROM\s+users\s+u`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Read(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestCreate_GeneratesUniqueUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	orig := randIntn
	defer func() { randIntn = orig }()
	picks := []int{0, 0, 1, 1} // amber-albatross, then azure-antelope
	randIntn = func(n int) int {
		p := picks[0]
		picks = picks[1:]
		return p
	}

	check := `SELECT\s+id\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1`
	// First candidate is taken, second is free.
	mock.ExpectQuery(check).
		WithArgs("amber-albatross").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(check).
		WithArgs("azure-antelope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+users\s*\(.*cognito_user_id.*is_reviewer.*\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	username, err := repo.Create(context.Background(), &models.User{CognitoUserID: "user-1", State: "NY"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if username != "azure-antelope" {
		t.Fatalf("unexpected username: %s", username)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_KeepsCallerUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	username, err := repo.Create(context.Background(), &models.User{CognitoUserID: "user-1", Username: "chosen-name"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if username != "chosen-name" {
		t.Fatalf("unexpected username: %s", username)
	}
}

func TestUpdate_DynamicSet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `UPDATE\s+users\s+SET\s+city\s*=\s*\$1,\s*has_seen_tutorial\s*=\s*\$2\s+WHERE\s+cognito_user_id\s*=\s*\$3`
	mock.ExpectExec(q).
		WithArgs("Albany", true, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "user-1", map[string]any{
		"has_seen_tutorial": true,
		"city":              "Albany",
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if err := repo.Update(context.Background(), "user-1", nil); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdate_RejectsUnknownColumn(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	err := repo.Update(context.Background(), "user-1", map[string]any{"cognito_user_id": "other"})
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET`).
		WillReturnError(errors.New("db down"))

	err := repo.Update(context.Background(), "user-1", map[string]any{"city": "Albany"})
	if err == nil || !regexp.MustCompile(`storage: users\.update: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}
