package storage

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/taxi-dispatch/internal/models"
)

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresArchive{db: db}, nil
}

// SaveRide upserts so a ride archived at accept time can be re-archived
// if it is later cancelled by replayed events.
func (p *PostgresArchive) SaveRide(r models.Ride) error {
	_, err := p.db.Exec(`INSERT INTO rides(id, client_id, driver_id, pickup_lat, pickup_lng, dest_lat, dest_lng, status, rejections, created_at, accepted_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET driver_id=EXCLUDED.driver_id, status=EXCLUDED.status, rejections=EXCLUDED.rejections, accepted_at=EXCLUDED.accepted_at`,
		r.ID, r.ClientID, nullable(r.DriverID), r.Pickup.Lat, r.Pickup.Lng, r.Destination.Lat, r.Destination.Lng,
		string(r.Status), len(r.Rejections), r.CreatedAt, nullTime(r.AcceptedAt))
	return err
}

func (p *PostgresArchive) Close() error { return p.db.Close() }

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
