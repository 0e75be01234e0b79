package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classhub/internal/common"
	"classhub/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ClassroomRepository interface {
	Create(ctx context.Context, classroom *model.Classroom) error
	FindByID(ctx context.Context, id string) (*model.Classroom, error)
	FindByCode(ctx context.Context, code string) (*model.Classroom, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Classroom, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Classroom, error)
}

type pgClassroomRepository struct {
	db *sql.DB
}

func NewPgClassroomRepository(db *sql.DB) ClassroomRepository {
	return &pgClassroomRepository{db: db}
}

const classroomColumns = `id, name, details, code, owner_id, created_at, updated_at`

func (r *pgClassroomRepository) Create(ctx context.Context, c *model.Classroom) error {
	query := `INSERT INTO classrooms (id, name, details, code, owner_id)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Details, c.Code, c.OwnerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique code
			return fmt.Errorf("classroom code %q already taken: %w", c.Code, common.ErrConflict)
		}
		return fmt.Errorf("pgClassroomRepository.Create: %w", err)
	}
	return nil
}

func (r *pgClassroomRepository) FindByID(ctx context.Context, id string) (*model.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "FindByID")
}

func (r *pgClassroomRepository) FindByCode(ctx context.Context, code string) (*model.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms WHERE code = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code), "FindByCode")
}

func (r *pgClassroomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM classrooms WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgClassroomRepository.CodeExists: %w", err)
	}
	return exists, nil
}

func (r *pgClassroomRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("pgClassroomRepository.ListByOwner: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows, "ListByOwner")
}

func (r *pgClassroomRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Classroom, error) {
	query := `SELECT c.id, c.name, c.details, c.code, c.owner_id, c.created_at, c.updated_at
	          FROM classrooms c
	          JOIN memberships m ON m.classroom_id = c.id
	          WHERE m.student_id = $1
	          ORDER BY m.joined_at DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("pgClassroomRepository.ListByStudent: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows, "ListByStudent")
}

func (r *pgClassroomRepository) scanOne(row *sql.Row, op string) (*model.Classroom, error) {
	c := &model.Classroom{}
	err := row.Scan(&c.ID, &c.Name, &c.Details, &c.Code, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgClassroomRepository.%s: %w", op, err)
	}
	return c, nil
}

func (r *pgClassroomRepository) scanMany(rows *sql.Rows, op string) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	for rows.Next() {
		var c model.Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.Details, &c.Code, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgClassroomRepository.%s: %w", op, err)
		}
		classrooms = append(classrooms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgClassroomRepository.%s: %w", op, err)
	}
	return classrooms, nil
}
