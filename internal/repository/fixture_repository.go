package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"matchpush/internal/domain/fixture"
	matchpush_errors "matchpush/pkg/errors"
)

type fixtureRepository struct {
	db DBTX
}

func NewFixtureRepository(db DBTX) FixtureRepository {
	return &fixtureRepository{db: db}
}

const fixtureColumns = `id, home_name, away_name, category, kickoff_utc, status, home_score, away_score, created_at, updated_at`

func (r *fixtureRepository) ListUpcoming(ctx context.Context, from, until time.Time) ([]fixture.Fixture, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+fixtureColumns+`
        FROM fixtures
        WHERE kickoff_utc >= $1 AND kickoff_utc < $2 AND status = $3
        ORDER BY kickoff_utc ASC
    `, from, until, fixture.StatusScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixtures []fixture.Fixture
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (r *fixtureRepository) GetByID(ctx context.Context, id uuid.UUID) (fixture.Fixture, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+fixtureColumns+`
        FROM fixtures
        WHERE id = $1
    `, id)

	var f fixture.Fixture
	err := row.Scan(
		&f.ID,
		&f.HomeName,
		&f.AwayName,
		&f.Category,
		&f.KickoffUTC,
		&f.Status,
		&f.HomeScore,
		&f.AwayScore,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fixture.Fixture{}, matchpush_errors.ErrNotFound
	}
	return f, err
}

func scanFixture(rows *sql.Rows) (fixture.Fixture, error) {
	var f fixture.Fixture
	err := rows.Scan(
		&f.ID,
		&f.HomeName,
		&f.AwayName,
		&f.Category,
		&f.KickoffUTC,
		&f.Status,
		&f.HomeScore,
		&f.AwayScore,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}
