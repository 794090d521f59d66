package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/orderfellow/orderfellow/internal/domain"
	"github.com/orderfellow/orderfellow/internal/domain/company"
)

const companyColumns = `id, name, business_email, COALESCE(webhook_secret, ''), is_webhook_active, kyc_status, created_at`

func scanCompany(row pgx.Row) (*company.Company, error) {
	var c company.Company
	err := row.Scan(&c.ID, &c.Name, &c.BusinessEmail, &c.WebhookSecret, &c.IsWebhookActive, &c.KYCStatus, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCompanyBySecret looks a company up by exact webhook secret match. This
// is the credential-store read behind webhook authentication.
func (s *Store) GetCompanyBySecret(ctx context.Context, secret string) (*company.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE webhook_secret = $1`, secret))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company by secret: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("company by secret: %w", err)
	}
	return c, nil
}

func (s *Store) GetCompanyByEmail(ctx context.Context, email string) (*company.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE business_email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("company %s: %w", email, err)
	}
	return c, nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*company.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("company %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) CreateCompany(ctx context.Context, req company.CreateRequest) (*company.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`INSERT INTO companies (name, business_email) VALUES ($1, $2)
		 RETURNING `+companyColumns, req.Name, req.BusinessEmail))
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]company.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []company.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	return companies, rows.Err()
}

// ApproveCompany flips a company to APPROVED, stores its freshly generated
// webhook secret and activates delivery in one statement, so the credential
// gates can never be observed half-applied.
func (s *Store) ApproveCompany(ctx context.Context, id, secret string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies
		 SET kyc_status = 'APPROVED', webhook_secret = $2, is_webhook_active = TRUE, updated_at = now()
		 WHERE id = $1`, id, secret)
	if err != nil {
		return fmt.Errorf("approve company %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approve company %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
