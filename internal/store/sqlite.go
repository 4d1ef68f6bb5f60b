package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// StoredShape is one persisted shape row. Data is the shape's flat JSON
// form without the id; the id lives in its own column.
type StoredShape struct {
	ID     int64
	RoomID int64
	UserID string
	Data   []byte
}

// Store persists shapes in SQLite, keyed by room and authoring user.
// Row order is insertion order, so listing by id descending yields
// newest-first.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS shapes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			shape TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	); err != nil {
		return fmt.Errorf("create shapes table: %w", err)
	}
	if _, err := s.db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_shapes_room ON shapes (room_id)`,
	); err != nil {
		return fmt.Errorf("create room index: %w", err)
	}
	return nil
}

// CreateShape inserts a shape and returns its assigned id.
func (s *Store) CreateShape(ctx context.Context, roomID int64, userID string, shape []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shapes (room_id, user_id, shape) VALUES ($1, $2, $3)`,
		roomID, userID, string(shape),
	)
	if err != nil {
		return 0, fmt.Errorf("insert shape: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// UpdateShape replaces the stored geometry of an existing shape. Returns
// domain.ErrNotFound when no shape with that id exists in the room.
func (s *Store) UpdateShape(ctx context.Context, roomID, shapeID int64, shape []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE shapes SET shape = $1 WHERE id = $2 AND room_id = $3`,
		string(shape), shapeID, roomID,
	)
	if err != nil {
		return fmt.Errorf("update shape: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update shape: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteShape removes a shape from a room. Returns domain.ErrNotFound when
// the shape does not exist.
func (s *Store) DeleteShape(ctx context.Context, roomID, shapeID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shapes WHERE id = $1 AND room_id = $2`,
		shapeID, roomID,
	)
	if err != nil {
		return fmt.Errorf("delete shape: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shape: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListShapes returns a user's shapes in a room, newest first.
func (s *Store) ListShapes(ctx context.Context, roomID int64, userID string) ([]StoredShape, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, user_id, shape FROM shapes
		 WHERE room_id = $1 AND user_id = $2 ORDER BY id DESC`,
		roomID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shapes: %w", err)
	}
	defer rows.Close()

	var shapes []StoredShape
	for rows.Next() {
		var sh StoredShape
		var data string
		if err := rows.Scan(&sh.ID, &sh.RoomID, &sh.UserID, &data); err != nil {
			return nil, fmt.Errorf("scan shape row: %w", err)
		}
		sh.Data = []byte(data)
		shapes = append(shapes, sh)
	}
	return shapes, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
