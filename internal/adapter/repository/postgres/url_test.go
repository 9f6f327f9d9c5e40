package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

var urlColumns = []string{
	"id", "short_id", "original_url", "short_url", "clicks",
	"created_by", "ip_address", "last_accessed", "created_at", "updated_at",
}

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown error
	ip         string
	mock       sqlmock.Sqlmock
	repo       *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.ip = "203.0.113.7"
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	suite.T().Cleanup(func() {
		db.Close()
	})

	suite.mock = mock
	suite.repo = NewURLRepository(db)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) newURL() *entity.URL {
	return &entity.URL{
		ShortID:     "abc123XY",
		OriginalURL: "https://example.com",
		ShortURL:    "https://sho.rt/abc123XY",
		CreatedBy:   "user-1",
		IPAddress:   &suite.ip,
	}
}

func (suite *URLRepositoryTestSuite) urlRow(rows *sqlmock.Rows, shortID string, clicks int64, lastAccessed any) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(1, shortID, "https://example.com", "https://sho.rt/"+shortID, clicks,
		"user-1", suite.ip, lastAccessed, now, now)
}

func (suite *URLRepositoryTestSuite) TestSave() {
	suite.Run("short id exists", func() {
		url := suite.newURL()

		suite.mock.ExpectBegin()
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs(url.ShortID, url.OriginalURL, url.ShortURL, url.CreatedBy, suite.ip).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: shortIDConstraint})
		suite.mock.ExpectRollback()

		got, err := suite.repo.Save(context.Background(), url)

		suite.ErrorIs(err, entity.ErrShortIDExists)
		suite.Nil(got)
	})

	suite.Run("url already shortened by user", func() {
		url := suite.newURL()

		suite.mock.ExpectBegin()
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs(url.ShortID, url.OriginalURL, url.ShortURL, url.CreatedBy, suite.ip).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: ownerURLConstraint})
		suite.mock.ExpectRollback()

		got, err := suite.repo.Save(context.Background(), url)

		suite.ErrorIs(err, entity.ErrURLExists)
		suite.Nil(got)
	})

	suite.Run("unknown error", func() {
		url := suite.newURL()

		suite.mock.ExpectBegin()
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs(url.ShortID, url.OriginalURL, url.ShortURL, url.CreatedBy, suite.ip).
			WillReturnError(suite.errUnknown)
		suite.mock.ExpectRollback()

		got, err := suite.repo.Save(context.Background(), url)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(got)
	})

	suite.Run("session upsert error", func() {
		url := suite.newURL()

		suite.mock.ExpectBegin()
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs(url.ShortID, url.OriginalURL, url.ShortURL, url.CreatedBy, suite.ip).
			WillReturnRows(suite.urlRow(sqlmock.NewRows(urlColumns), url.ShortID, 0, nil))
		suite.mock.ExpectExec(`INSERT INTO user_sessions`).
			WithArgs(url.CreatedBy, suite.ip, url.ShortID).
			WillReturnError(suite.errUnknown)
		suite.mock.ExpectRollback()

		got, err := suite.repo.Save(context.Background(), url)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(got)
	})

	suite.Run("begin error", func() {
		suite.mock.ExpectBegin().WillReturnError(suite.errUnknown)

		got, err := suite.repo.Save(context.Background(), suite.newURL())

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(got)
	})

	suite.Run("success", func() {
		url := suite.newURL()

		suite.mock.ExpectBegin()
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs(url.ShortID, url.OriginalURL, url.ShortURL, url.CreatedBy, suite.ip).
			WillReturnRows(suite.urlRow(sqlmock.NewRows(urlColumns), url.ShortID, 0, nil))
		suite.mock.ExpectExec(`INSERT INTO user_sessions`).
			WithArgs(url.CreatedBy, suite.ip, url.ShortID).
			WillReturnResult(sqlmock.NewResult(1, 1))
		suite.mock.ExpectCommit()

		got, err := suite.repo.Save(context.Background(), url)

		suite.NoError(err)
		suite.Equal(url.ShortID, got.ShortID)
		suite.Equal(url.ShortURL, got.ShortURL)
		suite.Equal(url.CreatedBy, got.CreatedBy)
		suite.Zero(got.Clicks)
		suite.Nil(got.LastAccessed)
		suite.Require().NotNil(got.IPAddress)
		suite.Equal(suite.ip, *got.IPAddress)
	})
}

func (suite *URLRepositoryTestSuite) TestExistsShortID() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abc123XY").
			WillReturnError(suite.errUnknown)

		exists, err := suite.repo.ExistsShortID(context.Background(), "abc123XY")

		suite.ErrorIs(err, suite.errUnknown)
		suite.False(exists)
	})

	suite.Run("exists", func() {
		suite.mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abc123XY").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := suite.repo.ExistsShortID(context.Background(), "abc123XY")

		suite.NoError(err)
		suite.True(exists)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveByShortID() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc123XY").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.RetrieveByShortID(context.Background(), "abc123XY")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc123XY").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.RetrieveByShortID(context.Background(), "abc123XY")

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		accessed := time.Now()

		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc123XY").
			WillReturnRows(suite.urlRow(sqlmock.NewRows(urlColumns), "abc123XY", 4, accessed))

		url, err := suite.repo.RetrieveByShortID(context.Background(), "abc123XY")

		suite.NoError(err)
		suite.Equal("abc123XY", url.ShortID)
		suite.Equal(int64(4), url.Clicks)
		suite.Require().NotNil(url.LastAccessed)
		suite.WithinDuration(accessed, *url.LastAccessed, time.Second)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveByOwner() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE created_by`).
			WithArgs("user-1", "https://example.com").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.RetrieveByOwner(context.Background(), "https://example.com", "user-1")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE created_by`).
			WithArgs("user-1", "https://example.com").
			WillReturnRows(suite.urlRow(sqlmock.NewRows(urlColumns), "abc123XY", 0, nil))

		url, err := suite.repo.RetrieveByOwner(context.Background(), "https://example.com", "user-1")

		suite.NoError(err)
		suite.Equal("abc123XY", url.ShortID)
		suite.Equal("user-1", url.CreatedBy)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieveAndUpdateStats() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("abc123XY").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.RetrieveAndUpdateStats(context.Background(), "abc123XY")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("abc123XY").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.RetrieveAndUpdateStats(context.Background(), "abc123XY")

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abc123XY").
			WillReturnRows(suite.urlRow(sqlmock.NewRows(urlColumns), "abc123XY", 1, time.Now()))

		url, err := suite.repo.RetrieveAndUpdateStats(context.Background(), "abc123XY")

		suite.NoError(err)
		suite.Equal(int64(1), url.Clicks)
		suite.NotNil(url.LastAccessed)
	})
}

func (suite *URLRepositoryTestSuite) TestListBySession() {
	suite.Run("count error", func() {
		suite.mock.ExpectQuery(`SELECT count\(\*\) FROM urls u JOIN user_sessions`).
			WithArgs("user-1").
			WillReturnError(suite.errUnknown)

		urls, total, err := suite.repo.ListBySession(context.Background(), "user-1", 10, 0)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
		suite.Zero(total)
	})

	suite.Run("empty session", func() {
		suite.mock.ExpectQuery(`SELECT count\(\*\) FROM urls u JOIN user_sessions`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		urls, total, err := suite.repo.ListBySession(context.Background(), "user-1", 10, 0)

		suite.NoError(err)
		suite.Empty(urls)
		suite.Zero(total)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(urlColumns)
		suite.urlRow(rows, "bbbbbbbb", 0, nil)
		suite.urlRow(rows, "aaaaaaaa", 2, time.Now())

		suite.mock.ExpectQuery(`SELECT count\(\*\) FROM urls u JOIN user_sessions`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		suite.mock.ExpectQuery(`SELECT u\.\* FROM urls u JOIN user_sessions (.+) LIMIT \$2 OFFSET \$3`).
			WithArgs("user-1", 2, 10).
			WillReturnRows(rows)

		urls, total, err := suite.repo.ListBySession(context.Background(), "user-1", 2, 10)

		suite.NoError(err)
		suite.Equal(int64(12), total)
		suite.Require().Len(urls, 2)
		suite.Equal("bbbbbbbb", urls[0].ShortID)
		suite.Equal("aaaaaaaa", urls[1].ShortID)
	})
}

func (suite *URLRepositoryTestSuite) TestListByOwner() {
	suite.Run("select error", func() {
		suite.mock.ExpectQuery(`SELECT count\(\*\) FROM urls WHERE created_by`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		suite.mock.ExpectQuery(`SELECT \* FROM urls WHERE created_by`).
			WithArgs("user-1", 10, 0).
			WillReturnError(suite.errUnknown)

		urls, total, err := suite.repo.ListByOwner(context.Background(), "user-1", 10, 0)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
		suite.Zero(total)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT count\(\*\) FROM urls WHERE created_by`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		suite.mock.ExpectQuery(`SELECT \* FROM urls WHERE created_by`).
			WithArgs("user-1", 10, 0).
			WillReturnRows(suite.urlRow(sqlmock.NewRows(urlColumns), "abc123XY", 0, nil))

		urls, total, err := suite.repo.ListByOwner(context.Background(), "user-1", 10, 0)

		suite.NoError(err)
		suite.Equal(int64(1), total)
		suite.Require().Len(urls, 1)
		suite.Equal("abc123XY", urls[0].ShortID)
	})
}

func (suite *URLRepositoryTestSuite) TestRemoveOwned() {
	suite.Run("not owned or missing", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("abc123XY", "user-2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		suite.mock.ExpectRollback()

		err := suite.repo.RemoveOwned(context.Background(), "abc123XY", "user-2")

		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("abc123XY", "user-1").
			WillReturnError(suite.errUnknown)
		suite.mock.ExpectRollback()

		err := suite.repo.RemoveOwned(context.Background(), "abc123XY", "user-1")

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("affected rows error", func() {
		errAffectedRows := errors.New("affected rows error")

		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("abc123XY", "user-1").
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))
		suite.mock.ExpectRollback()

		err := suite.repo.RemoveOwned(context.Background(), "abc123XY", "user-1")

		suite.ErrorIs(err, errAffectedRows)
	})

	suite.Run("commit error", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("abc123XY", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectExec(`UPDATE user_sessions SET short_ids = array_remove`).
			WithArgs("user-1", "abc123XY").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectCommit().WillReturnError(suite.errUnknown)

		err := suite.repo.RemoveOwned(context.Background(), "abc123XY", "user-1")

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("abc123XY", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectExec(`UPDATE user_sessions SET short_ids = array_remove`).
			WithArgs("user-1", "abc123XY").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectCommit()

		err := suite.repo.RemoveOwned(context.Background(), "abc123XY", "user-1")

		suite.NoError(err)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
