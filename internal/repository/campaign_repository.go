package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unclebandit/prospecting-dashboard/internal/db"
	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

type CampaignRepositoryInterface interface {
	// Admission + launch
	CreateIfUnderLimit(ctx context.Context, c *model.Campaign, limit int) (int, error)

	// Lifecycle
	TransitionAll(ctx context.Context, from []model.Status, to model.Status) (int64, error)
	UpdateStatus(ctx context.Context, campaignID int, status model.Status) error

	// Projections
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	ListByStatus(ctx context.Context, status model.Status) ([]*model.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int, kind string, status *model.Status) ([]*model.Campaign, int, error)
	CountByStatus(ctx context.Context, status model.Status) (int, error)
	ChartSeries(ctx context.Context) ([]model.ChartPoint, error)
}

type CampaignRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const campaignColumns = `id, company_type, state, city, kind, started_at, leads_reached, status, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s rowScanner) (*model.Campaign, error) {
	c := &model.Campaign{}
	var status int
	var updatedAt sql.NullTime
	if err := s.Scan(&c.ID, &c.CompanyType, &c.State, &c.City, &c.Kind, &c.StartedAt, &c.LeadsReached, &status, &updatedAt); err != nil {
		return nil, err
	}
	c.Status = model.Status(status)
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	return c, nil
}

// ====================== Admission + launch ======================

// CreateIfUnderLimit inserts c as Active only while fewer than limit
// campaigns are Active. The admission_lock row is held for the whole
// transaction, so concurrent launches decide one at a time. It returns the
// active count the decision was made on.
func (r *CampaignRepository) CreateIfUnderLimit(ctx context.Context, c *model.Campaign, limit int) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin admission: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, r.Dialect.Rebind(`UPDATE admission_lock SET locked_at=$1 WHERE id=1`), now); err != nil {
		return 0, fmt.Errorf("acquire admission lock: %w", err)
	}

	var active int
	countQuery := r.Dialect.Rebind(`SELECT COUNT(*) FROM campaigns WHERE status=$1`)
	if err := tx.QueryRowContext(ctx, countQuery, int(model.StatusActive)).Scan(&active); err != nil {
		return 0, fmt.Errorf("count active campaigns: %w", err)
	}
	if active >= limit {
		return active, appErrors.NewAdmissionDenied(active, limit)
	}

	c.Status = model.StatusActive
	if c.StartedAt.IsZero() {
		c.StartedAt = now
	}
	query := `
        INSERT INTO campaigns (company_type, state, city, kind, started_at, leads_reached, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	id, err := r.Dialect.InsertReturningID(ctx, tx, query,
		c.CompanyType, c.State, c.City, c.Kind, c.StartedAt, c.LeadsReached, int(c.Status))
	if err != nil {
		return active, fmt.Errorf("insert campaign: %w", err)
	}
	c.ID = int(id)

	if err := tx.Commit(); err != nil {
		return active, fmt.Errorf("commit admission: %w", err)
	}
	return active, nil
}

// ====================== Lifecycle ======================

// TransitionAll moves every campaign in one of the from states to the target
// state in a single statement and reports how many rows changed.
func (r *CampaignRepository) TransitionAll(ctx context.Context, from []model.Status, to model.Status) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}

	args := []any{int(to), time.Now().UTC()}
	placeholders := make([]string, 0, len(from))
	for _, s := range from {
		args = append(args, int(s))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf(`UPDATE campaigns SET status=$1, updated_at=$2 WHERE status IN (%s)`, strings.Join(placeholders, ", "))

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status model.Status) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), int(status), time.Now().UTC(), campaignID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

// ====================== Projections ======================

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListByStatus(ctx context.Context, status model.Status) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status=$1 ORDER BY started_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), int(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, kind string, status *model.Status) ([]*model.Campaign, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if kind != "" {
		args = append(args, kind)
		where += fmt.Sprintf(" AND kind=$%d", len(args))
	}
	if status != nil {
		args = append(args, int(*status))
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM campaigns` + where
	if err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) CountByStatus(ctx context.Context, status model.Status) (int, error) {
	var count int
	query := r.Dialect.Rebind(`SELECT COUNT(*) FROM campaigns WHERE status=$1`)
	if err := r.DB.QueryRowContext(ctx, query, int(status)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ChartSeries projects every campaign regardless of status.
func (r *CampaignRepository) ChartSeries(ctx context.Context) ([]model.ChartPoint, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT kind, leads_reached, started_at FROM campaigns ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []model.ChartPoint{}
	for rows.Next() {
		var p model.ChartPoint
		if err := rows.Scan(&p.Kind, &p.Leads, &p.StartedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
