package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"kosfinder/internal/listing/models"
	"kosfinder/pkg/platform/sentinel"
	txcontext "kosfinder/pkg/platform/tx"
)

// Postgres persists listings, facility links, and reviews. It implements
// ListingStore, FacilityLinkStore, and ReviewStore against the relational
// schema, honoring a transaction carried in the context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const listingColumns = `id, owner_id, title, slug, description, address, gender,
	monthly_price, latitude, longitude, distance_to_campus_km,
	available_rooms, total_rooms, cover_image, cover_image_url,
	images, image_urls, is_active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, listing *models.Listing) error {
	images, imageURLs, err := marshalImages(listing)
	if err != nil {
		return err
	}
	row := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO kos_listings (
			owner_id, title, slug, description, address, gender,
			monthly_price, latitude, longitude, distance_to_campus_km,
			available_rooms, total_rooms, cover_image, cover_image_url,
			images, image_urls, is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id`,
		listing.OwnerID, listing.Title, listing.Slug, listing.Description,
		listing.Address, listing.Gender, listing.MonthlyPrice,
		listing.Latitude, listing.Longitude, listing.DistanceToCampusKM,
		listing.AvailableRooms, listing.TotalRooms,
		listing.CoverImage, listing.CoverImageURL, images, imageURLs,
		listing.IsActive, listing.CreatedAt, listing.UpdatedAt,
	)
	if err := row.Scan(&listing.ID); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, listing *models.Listing) error {
	images, imageURLs, err := marshalImages(listing)
	if err != nil {
		return err
	}
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE kos_listings SET
			title = $2, description = $3, address = $4, gender = $5,
			monthly_price = $6, latitude = $7, longitude = $8,
			distance_to_campus_km = $9, available_rooms = $10, total_rooms = $11,
			cover_image = $12, cover_image_url = $13, images = $14,
			image_urls = $15, is_active = $16, updated_at = $17
		WHERE id = $1`,
		listing.ID, listing.Title, listing.Description, listing.Address,
		listing.Gender, listing.MonthlyPrice, listing.Latitude, listing.Longitude,
		listing.DistanceToCampusKM, listing.AvailableRooms, listing.TotalRooms,
		listing.CoverImage, listing.CoverImageURL, images, imageURLs,
		listing.IsActive, listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id int64) error {
	// facility links and reviews go with it via ON DELETE CASCADE
	res, err := s.q(ctx).ExecContext(ctx, "DELETE FROM kos_listings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Listing, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM kos_listings WHERE id = $1", id)
	return scanListing(row)
}

func (s *Postgres) FindBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM kos_listings WHERE slug = $1", slug)
	return scanListing(row)
}

func (s *Postgres) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM kos_listings WHERE slug = $1)", slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Markers(ctx context.Context, filters models.Filters) ([]models.Marker, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, title, slug, gender, monthly_price, latitude, longitude,
			distance_to_campus_km, available_rooms, cover_image_url
		FROM kos_listings
		WHERE is_active = TRUE`)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filters.Gender != nil {
		query.WriteString(" AND gender = " + arg(*filters.Gender))
	}
	if filters.MinPrice != nil {
		query.WriteString(" AND monthly_price >= " + arg(*filters.MinPrice))
	}
	if filters.MaxPrice != nil {
		query.WriteString(" AND monthly_price <= " + arg(*filters.MaxPrice))
	}
	if filters.MaxDistanceKM != nil {
		query.WriteString(" AND distance_to_campus_km <= " + arg(*filters.MaxDistanceKM))
	}
	if filters.AvailableOnly {
		query.WriteString(" AND available_rooms > 0")
	}
	query.WriteString(" ORDER BY distance_to_campus_km ASC")

	rows, err := s.q(ctx).QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	markers := make([]models.Marker, 0)
	for rows.Next() {
		var m models.Marker
		if err := rows.Scan(&m.ID, &m.Title, &m.Slug, &m.Gender, &m.MonthlyPrice,
			&m.Latitude, &m.Longitude, &m.DistanceToCampusKM,
			&m.AvailableRooms, &m.CoverImageURL); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

func (s *Postgres) ByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		"SELECT "+listingColumns+" FROM kos_listings WHERE owner_id = $1 ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("query by owner: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

func (s *Postgres) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.q(ctx).ExecContext(ctx,
		"UPDATE kos_listings SET is_active = $2, updated_at = now() WHERE id = $1",
		id, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListAllWithOwner(ctx context.Context) ([]*models.AdminListing, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+prefixed("l", listingColumns)+`, u.id, u.name, u.email
		FROM kos_listings l
		JOIN users u ON u.id = l.owner_id
		ORDER BY l.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query all listings: %w", err)
	}
	defer rows.Close()

	var result []*models.AdminListing
	for rows.Next() {
		var al models.AdminListing
		var images, imageURLs []byte
		if err := rows.Scan(
			&al.ID, &al.OwnerID, &al.Title, &al.Slug, &al.Description, &al.Address,
			&al.Gender, &al.MonthlyPrice, &al.Latitude, &al.Longitude,
			&al.DistanceToCampusKM, &al.AvailableRooms, &al.TotalRooms,
			&al.CoverImage, &al.CoverImageURL, &images, &imageURLs,
			&al.IsActive, &al.CreatedAt, &al.UpdatedAt,
			&al.Owner.ID, &al.Owner.Name, &al.Owner.Email,
		); err != nil {
			return nil, fmt.Errorf("scan admin listing: %w", err)
		}
		if err := unmarshalImages(&al.Listing, images, imageURLs); err != nil {
			return nil, err
		}
		result = append(result, &al)
	}
	return result, rows.Err()
}

func (s *Postgres) Replace(ctx context.Context, kosID int64, assocs []models.FacilityAssociation) error {
	q := s.q(ctx)
	if _, err := q.ExecContext(ctx, "DELETE FROM kos_facilities WHERE kos_id = $1", kosID); err != nil {
		return fmt.Errorf("clear facilities: %w", err)
	}
	for _, assoc := range assocs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO kos_facilities (kos_id, facility_id, is_available, extra_price)
			VALUES ($1, $2, $3, $4)`,
			kosID, assoc.FacilityID, assoc.IsAvailable, assoc.ExtraPrice)
		if err != nil {
			return fmt.Errorf("insert facility link: %w", err)
		}
	}
	return nil
}

func (s *Postgres) DetailsByListing(ctx context.Context, kosID int64) ([]models.FacilityDetail, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT ft.id, ft.name, ft.icon, ft.created_at, kf.extra_price, kf.is_available
		FROM kos_facilities kf
		JOIN facility_types ft ON ft.id = kf.facility_id
		WHERE kf.kos_id = $1
		ORDER BY ft.id`, kosID)
	if err != nil {
		return nil, fmt.Errorf("query facilities: %w", err)
	}
	defer rows.Close()

	details := make([]models.FacilityDetail, 0)
	for rows.Next() {
		var d models.FacilityDetail
		if err := rows.Scan(&d.ID, &d.Name, &d.Icon, &d.CreatedAt, &d.ExtraPrice, &d.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *Postgres) ListByListing(ctx context.Context, kosID int64) ([]models.Review, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT r.id, r.kos_id, r.user_id, u.name, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.kos_id = $1
		ORDER BY r.created_at DESC`, kosID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.KosID, &r.UserID, &r.ReviewerName, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// PostgresTx runs fn inside a SQL transaction carried through the context so
// every store call in the closure shares it.
type PostgresTx struct {
	db *sql.DB
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanListing(row *sql.Row) (*models.Listing, error) {
	var l models.Listing
	var images, imageURLs []byte
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Slug, &l.Description, &l.Address,
		&l.Gender, &l.MonthlyPrice, &l.Latitude, &l.Longitude,
		&l.DistanceToCampusKM, &l.AvailableRooms, &l.TotalRooms,
		&l.CoverImage, &l.CoverImageURL, &images, &imageURLs,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	if err := unmarshalImages(&l, images, imageURLs); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanListings(rows *sql.Rows) ([]*models.Listing, error) {
	var result []*models.Listing
	for rows.Next() {
		var l models.Listing
		var images, imageURLs []byte
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Title, &l.Slug, &l.Description, &l.Address,
			&l.Gender, &l.MonthlyPrice, &l.Latitude, &l.Longitude,
			&l.DistanceToCampusKM, &l.AvailableRooms, &l.TotalRooms,
			&l.CoverImage, &l.CoverImageURL, &images, &imageURLs,
			&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if err := unmarshalImages(&l, images, imageURLs); err != nil {
			return nil, err
		}
		result = append(result, &l)
	}
	return result, rows.Err()
}

// Gallery references are stored as JSONB arrays; database/sql has no native
// string-slice mapping.
func marshalImages(l *models.Listing) ([]byte, []byte, error) {
	images, err := json.Marshal(emptyIfNil(l.Images))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	imageURLs, err := json.Marshal(emptyIfNil(l.ImageURLs))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal image urls: %w", err)
	}
	return images, imageURLs, nil
}

func unmarshalImages(l *models.Listing, images, imageURLs []byte) error {
	if len(images) > 0 {
		if err := json.Unmarshal(images, &l.Images); err != nil {
			return fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if len(imageURLs) > 0 {
		if err := json.Unmarshal(imageURLs, &l.ImageURLs); err != nil {
			return fmt.Errorf("unmarshal image urls: %w", err)
		}
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// prefixed qualifies each column in a comma-separated list with a table
// alias for join queries.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
