// Package routedb reads the persisted route format owned by the external
// storage collaborator. The engine only consumes routes; writing exists for
// test fixtures and the gen-route tool.
package routedb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a route database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating the schema if absent) the route database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open route db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure route schema: %w", err)
	}
	return &DB{db}, nil
}

// RouteInfo is a listing entry.
type RouteInfo struct {
	ID         uuid.UUID
	Name       string
	RecordedAt time.Time
	CrumbCount int
}

// ListRoutes returns all stored routes, newest first.
func (db *DB) ListRoutes() ([]RouteInfo, error) {
	rows, err := db.Query(`
		SELECT r.id, r.name, r.recorded_at_unix_nanos, COUNT(c.seq)
		FROM routes r LEFT JOIN crumbs c ON c.route_id = r.id
		GROUP BY r.id ORDER BY r.recorded_at_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	var out []RouteInfo
	for rows.Next() {
		var (
			id    string
			info  RouteInfo
			nanos int64
		)
		if err := rows.Scan(&id, &info.Name, &nanos, &info.CrumbCount); err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		info.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid route id %q: %w", id, err)
		}
		info.RecordedAt = time.Unix(0, nanos)
		out = append(out, info)
	}
	return out, rows.Err()
}

// LoadRoute deserializes one route, crumbs in recorded order.
func (db *DB) LoadRoute(id uuid.UUID) (*nav.Route, error) {
	route := &nav.Route{ID: id}

	var nanos int64
	err := db.QueryRow(`SELECT name, recorded_at_unix_nanos FROM routes WHERE id = ?`, id.String()).
		Scan(&route.Name, &nanos)
	if err != nil {
		return nil, fmt.Errorf("failed to load route %s: %w", id, err)
	}
	route.RecordedAt = time.Unix(0, nanos)

	rows, err := db.Query(`
		SELECT unix_nanos, r00, r01, r02, r10, r11, r12, r20, r21, r22, tx, ty, tz
		FROM crumbs WHERE route_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load crumbs for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		pose, err := scanPose(rows)
		if err != nil {
			return nil, err
		}
		route.Crumbs = append(route.Crumbs, nav.Crumb{Pose: pose})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lrows, err := db.Query(`
		SELECT position, is_soft, annotation_ref,
		       unix_nanos, r00, r01, r02, r10, r11, r12, r20, r21, r22, tx, ty, tz
		FROM landmarks WHERE route_id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load landmarks for %s: %w", id, err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var (
			position string
			isSoft   int
			lm       nav.RouteLandmark
			p        geom.Pose
		)
		if err := lrows.Scan(&position, &isSoft, &lm.AnnotationRef,
			&p.UnixNanos,
			&p.R[0], &p.R[1], &p.R[2],
			&p.R[3], &p.R[4], &p.R[5],
			&p.R[6], &p.R[7], &p.R[8],
			&p.T[0], &p.T[1], &p.T[2]); err != nil {
			return nil, fmt.Errorf("failed to scan landmark: %w", err)
		}
		lm.Pose = p
		lm.IsSoftAlignment = isSoft != 0
		switch position {
		case "begin":
			route.Begin = lm
		case "end":
			route.End = lm
		}
	}
	return route, lrows.Err()
}

// scanPose reads the 13 pose columns (stamp + rotation + translation).
func scanPose(rows *sql.Rows) (geom.Pose, error) {
	var p geom.Pose
	err := rows.Scan(&p.UnixNanos,
		&p.R[0], &p.R[1], &p.R[2],
		&p.R[3], &p.R[4], &p.R[5],
		&p.R[6], &p.R[7], &p.R[8],
		&p.T[0], &p.T[1], &p.T[2])
	if err != nil {
		return p, fmt.Errorf("failed to scan crumb pose: %w", err)
	}
	return p, nil
}

// SaveRoute writes a route. Used by fixtures and the gen-route tool; the
// engine itself never writes.
func (db *DB) SaveRoute(route *nav.Route) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO routes (id, name, recorded_at_unix_nanos) VALUES (?, ?, ?)`,
		route.ID.String(), route.Name, route.RecordedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}

	crumbStmt, err := tx.Prepare(`
		INSERT INTO crumbs (route_id, seq, unix_nanos,
			r00, r01, r02, r10, r11, r12, r20, r21, r22, tx, ty, tz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare crumb insert: %w", err)
	}
	defer crumbStmt.Close()
	for seq, c := range route.Crumbs {
		p := c.Pose
		if _, err := crumbStmt.Exec(route.ID.String(), seq, p.UnixNanos,
			p.R[0], p.R[1], p.R[2], p.R[3], p.R[4], p.R[5], p.R[6], p.R[7], p.R[8],
			p.T[0], p.T[1], p.T[2]); err != nil {
			return fmt.Errorf("failed to insert crumb %d: %w", seq, err)
		}
	}

	for position, lm := range map[string]nav.RouteLandmark{"begin": route.Begin, "end": route.End} {
		p := lm.Pose
		isSoft := 0
		if lm.IsSoftAlignment {
			isSoft = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO landmarks (route_id, position, is_soft, annotation_ref, unix_nanos,
				r00, r01, r02, r10, r11, r12, r20, r21, r22, tx, ty, tz)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			route.ID.String(), position, isSoft, lm.AnnotationRef, p.UnixNanos,
			p.R[0], p.R[1], p.R[2], p.R[3], p.R[4], p.R[5], p.R[6], p.R[7], p.R[8],
			p.T[0], p.T[1], p.T[2]); err != nil {
			return fmt.Errorf("failed to insert %s landmark: %w", position, err)
		}
	}

	return tx.Commit()
}
