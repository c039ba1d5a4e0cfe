package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/models"
)

// dialect captures the differences between supported SQL backends.
type dialect struct {
	name      string
	blob      string
	timestamp string
	boolean   string
	serialKey string
	numbered  bool
}

// sqlStore implements Store over database/sql.
type sqlStore struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

func schema(d dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS aeo_reports (
			id TEXT PRIMARY KEY,
			vendor_id TEXT,
			company_name TEXT NOT NULL,
			category TEXT NOT NULL,
			city TEXT NOT NULL,
			email TEXT,
			ip_address TEXT,
			report_type TEXT NOT NULL,
			score INTEGER NOT NULL,
			data TEXT NOT NULL,
			pdf ` + d.blob + `,
			created_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_aeo_reports_created ON aeo_reports(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_aeo_reports_email ON aeo_reports(email) WHERE email IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_aeo_reports_ip ON aeo_reports(ip_address, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_aeo_reports_vendor ON aeo_reports(vendor_id)`,
		`CREATE TABLE IF NOT EXISTS mention_scans (
			id ` + d.serialKey + `,
			vendor_id TEXT NOT NULL,
			scan_date ` + d.timestamp + ` NOT NULL,
			prompt TEXT NOT NULL,
			mentioned ` + d.boolean + ` NOT NULL,
			position TEXT NOT NULL,
			ai_model TEXT NOT NULL,
			competitors_mentioned TEXT NOT NULL,
			category TEXT NOT NULL,
			location TEXT NOT NULL,
			response_snippet TEXT NOT NULL,
			source TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mention_scans_vendor_date ON mention_scans(vendor_id, scan_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_mention_scans_date ON mention_scans(scan_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_mention_scans_vendor_mentioned ON mention_scans(vendor_id, mentioned, scan_date DESC)`,
		`CREATE TABLE IF NOT EXISTS vendors (
			id TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			email TEXT,
			tier TEXT NOT NULL,
			city TEXT,
			coverage_areas TEXT NOT NULL,
			services TEXT NOT NULL,
			practice_areas TEXT NOT NULL,
			description TEXT,
			years_in_business INTEGER NOT NULL DEFAULT 0,
			specialisations TEXT NOT NULL,
			certifications TEXT NOT NULL,
			review_count INTEGER NOT NULL DEFAULT 0,
			average_rating REAL NOT NULL DEFAULT 0,
			product_count INTEGER NOT NULL DEFAULT 0,
			created_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vendors_tier ON vendors(tier)`,
	}
}

// Migrate runs database migrations.
func (s *sqlStore) Migrate() error {
	for _, m := range schema(s.d) {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *sqlStore) rebind(query string) string {
	if !s.d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *sqlStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// PutReport stores a report and its PDF in one statement and returns the new id.
func (s *sqlStore) PutReport(ctx context.Context, r *models.PersistedReport) (string, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	id, err := NewReportID(r.CreatedAt)
	if err != nil {
		return "", &models.StoreError{Op: "put report", Err: err}
	}

	data, err := json.Marshal(r.ReportData)
	if err != nil {
		return "", &models.StoreError{Op: "put report", Err: err}
	}

	_, err = s.exec(ctx, `
		INSERT INTO aeo_reports (id, vendor_id, company_name, category, city, email, ip_address,
			report_type, score, data, pdf, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullable(r.VendorID), r.CompanyName, r.Category, r.City, nullable(r.Email), nullable(r.IPAddress),
		string(r.ReportType), r.Score, string(data), r.PDF, r.CreatedAt.UTC(),
	)
	if err != nil {
		return "", &models.StoreError{Op: "put report", Err: err}
	}
	r.ID = id
	return id, nil
}

// GetReport retrieves the report JSON by id. A missing id yields nil, nil.
func (s *sqlStore) GetReport(ctx context.Context, id string) (*models.ReportData, error) {
	p, err := s.getPersisted(ctx, id, false)
	if err != nil || p == nil {
		return nil, err
	}
	return &p.ReportData, nil
}

// GetPersisted retrieves the full record, PDF included.
func (s *sqlStore) GetPersisted(ctx context.Context, id string) (*models.PersistedReport, error) {
	return s.getPersisted(ctx, id, true)
}

func (s *sqlStore) getPersisted(ctx context.Context, id string, withPDF bool) (*models.PersistedReport, error) {
	cols := "id, vendor_id, ip_address, data"
	if withPDF {
		cols += ", pdf"
	}
	row := s.queryRow(ctx, `SELECT `+cols+` FROM aeo_reports WHERE id = ?`, id)

	var (
		p        models.PersistedReport
		vendorID sql.NullString
		ip       sql.NullString
		data     string
	)
	dest := []any{&p.ID, &vendorID, &ip, &data}
	if withPDF {
		dest = append(dest, &p.PDF)
	}
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get report", Err: err}
	}
	if err := json.Unmarshal([]byte(data), &p.ReportData); err != nil {
		return nil, &models.StoreError{Op: "decode report", Err: err}
	}
	p.VendorID = vendorID.String
	p.IPAddress = ip.String
	return &p, nil
}

// GetPDF retrieves the PDF bytes by id. A missing id or empty PDF yields nil, nil.
func (s *sqlStore) GetPDF(ctx context.Context, id string) ([]byte, error) {
	var pdf []byte
	err := s.queryRow(ctx, `SELECT pdf FROM aeo_reports WHERE id = ?`, id).Scan(&pdf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get pdf", Err: err}
	}
	if len(pdf) == 0 {
		return nil, nil
	}
	return pdf, nil
}

// ListByVendor returns a vendor's report ids, newest first.
func (s *sqlStore) ListByVendor(ctx context.Context, vendorID string) ([]string, error) {
	rows, err := s.query(ctx, `SELECT id FROM aeo_reports WHERE vendor_id = ? ORDER BY created_at DESC`, vendorID)
	if err != nil {
		return nil, &models.StoreError{Op: "list reports", Err: err}
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &models.StoreError{Op: "list reports", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LatestReportByIP returns the newest report created from ip at or after since.
func (s *sqlStore) LatestReportByIP(ctx context.Context, ip string, since time.Time) (*models.PersistedReport, error) {
	if ip == "" {
		return nil, nil
	}
	var id string
	err := s.queryRow(ctx, `
		SELECT id FROM aeo_reports WHERE ip_address = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT 1`, ip, since.UTC()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "latest report by ip", Err: err}
	}
	return s.getPersisted(ctx, id, false)
}

// DeleteByVendor removes a vendor's reports and mention records.
func (s *sqlStore) DeleteByVendor(ctx context.Context, vendorID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StoreError{Op: "delete vendor data", Err: err}
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM aeo_reports WHERE vendor_id = ?`,
		`DELETE FROM mention_scans WHERE vendor_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.rebind(q), vendorID); err != nil {
			return &models.StoreError{Op: "delete vendor data", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &models.StoreError{Op: "delete vendor data", Err: err}
	}
	return nil
}

// InsertMentionScans writes records independently: a failing row is logged and
// skipped so the rest of the batch still lands. It returns the number written and
// the joined row errors.
func (s *sqlStore) InsertMentionScans(ctx context.Context, records []models.MentionScanRecord) (int, error) {
	const q = `
		INSERT INTO mention_scans (vendor_id, scan_date, prompt, mentioned, position, ai_model,
			competitors_mentioned, category, location, response_snippet, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	query := s.rebind(q)

	var (
		inserted int
		errs     []error
	)
	for i, r := range records {
		competitors := r.CompetitorsMentioned
		if competitors == nil {
			competitors = []string{}
		}
		compJSON, err := json.Marshal(competitors)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		_, err = s.db.ExecContext(ctx, query,
			r.VendorID, r.ScanDate.UTC(), r.Prompt, r.Mentioned, string(r.Position), r.AIModel,
			string(compJSON), r.Category, r.Location, r.ResponseSnippet, string(r.Source))
		if err != nil {
			log.Warn().Err(err).Str("vendor", r.VendorID).Msg("mention record insert failed")
			errs = append(errs, fmt.Errorf("record %d (vendor %s): %w", i, r.VendorID, err))
			continue
		}
		inserted++
	}
	if len(errs) > 0 {
		return inserted, &models.StoreError{Op: "insert mention scans", Err: errors.Join(errs...)}
	}
	return inserted, nil
}

// ListMentionScans returns a vendor's newest mention records.
func (s *sqlStore) ListMentionScans(ctx context.Context, vendorID string, limit int) ([]models.MentionScanRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.query(ctx, `
		SELECT id, vendor_id, scan_date, prompt, mentioned, position, ai_model, competitors_mentioned,
			category, location, response_snippet, source
		FROM mention_scans WHERE vendor_id = ? ORDER BY scan_date DESC, id DESC LIMIT ?`, vendorID, limit)
	if err != nil {
		return nil, &models.StoreError{Op: "list mention scans", Err: err}
	}
	defer rows.Close()

	records := []models.MentionScanRecord{}
	for rows.Next() {
		var (
			r        models.MentionScanRecord
			position string
			source   string
			compJSON string
		)
		if err := rows.Scan(&r.ID, &r.VendorID, &r.ScanDate, &r.Prompt, &r.Mentioned, &position, &r.AIModel,
			&compJSON, &r.Category, &r.Location, &r.ResponseSnippet, &source); err != nil {
			return nil, &models.StoreError{Op: "list mention scans", Err: err}
		}
		r.Position = models.ScanPosition(position)
		r.Source = models.ScanSource(source)
		if err := json.Unmarshal([]byte(compJSON), &r.CompetitorsMentioned); err != nil {
			r.CompetitorsMentioned = []string{}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

const vendorColumns = `id, company, email, tier, city, coverage_areas, services, practice_areas, description,
	years_in_business, specialisations, certifications, review_count, average_rating, product_count, created_at`

// UpsertVendor inserts or replaces a vendor listing.
func (s *sqlStore) UpsertVendor(ctx context.Context, v *models.Vendor) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now().UTC()
	}
	lists := make([]string, 0, 5)
	for _, l := range [][]string{v.CoverageAreas, v.Services, v.PracticeAreas, v.Specialisations, v.Certifications} {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return &models.StoreError{Op: "upsert vendor", Err: err}
		}
		lists = append(lists, string(b))
	}

	_, err := s.exec(ctx, `
		INSERT INTO vendors (`+vendorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			company = excluded.company, email = excluded.email, tier = excluded.tier, city = excluded.city,
			coverage_areas = excluded.coverage_areas, services = excluded.services,
			practice_areas = excluded.practice_areas, description = excluded.description,
			years_in_business = excluded.years_in_business, specialisations = excluded.specialisations,
			certifications = excluded.certifications, review_count = excluded.review_count,
			average_rating = excluded.average_rating, product_count = excluded.product_count`,
		v.ID, v.Company, nullable(v.Email), string(v.Tier), nullable(v.City), lists[0], lists[1], lists[2],
		nullable(v.Description), v.YearsInBusiness, lists[3], lists[4], v.ReviewCount, v.AverageRating,
		v.ProductCount, v.CreatedAt.UTC(),
	)
	if err != nil {
		return &models.StoreError{Op: "upsert vendor", Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*models.Vendor, error) {
	var (
		v                               models.Vendor
		email, city, description        sql.NullString
		tier                            string
		coverage, services, practice    string
		specialisations, certifications string
	)
	if err := row.Scan(&v.ID, &v.Company, &email, &tier, &city, &coverage, &services, &practice, &description,
		&v.YearsInBusiness, &specialisations, &certifications, &v.ReviewCount, &v.AverageRating,
		&v.ProductCount, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Email = email.String
	v.City = city.String
	v.Description = description.String
	v.Tier = models.Tier(tier)
	for dst, src := range map[*[]string]string{
		&v.CoverageAreas:   coverage,
		&v.Services:        services,
		&v.PracticeAreas:   practice,
		&v.Specialisations: specialisations,
		&v.Certifications:  certifications,
	} {
		_ = json.Unmarshal([]byte(src), dst)
	}
	return &v, nil
}

// GetVendor retrieves a vendor by id. A missing id yields nil, nil.
func (s *sqlStore) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	v, err := scanVendor(s.queryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get vendor", Err: err}
	}
	return v, nil
}

// ListVendorsByTier returns vendors on any of tiers in insertion order.
func (s *sqlStore) ListVendorsByTier(ctx context.Context, tiers ...models.Tier) ([]models.Vendor, error) {
	if len(tiers) == 0 {
		return []models.Vendor{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tiers)), ", ")
	args := make([]any, len(tiers))
	for i, t := range tiers {
		args[i] = string(t)
	}

	rows, err := s.query(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE tier IN (`+placeholders+`) ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "list vendors", Err: err}
	}
	defer rows.Close()

	vendors := []models.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, &models.StoreError{Op: "list vendors", Err: err}
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}

// CountListed counts listed vendors serving category in city, excluding
// excludeCompany.
func (s *sqlStore) CountListed(ctx context.Context, category, city, excludeCompany string) (int, error) {
	rows, err := s.query(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE LOWER(city) = LOWER(?) AND LOWER(company) <> LOWER(?)`,
		strings.TrimSpace(city), strings.TrimSpace(excludeCompany))
	if err != nil {
		return 0, &models.StoreError{Op: "count vendors", Err: err}
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return 0, &models.StoreError{Op: "count vendors", Err: err}
		}
		if servesCategory(v, category) {
			count++
		}
	}
	return count, rows.Err()
}

func servesCategory(v *models.Vendor, category string) bool {
	for _, list := range [][]string{v.PracticeAreas, v.Services} {
		for _, name := range list {
			if slug, ok := categories.FromName(name); ok && slug == category {
				return true
			}
		}
	}
	return false
}
