package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]model.Assignment, error)
}

type pgAssignmentRepository struct {
	db *sql.DB
}

func NewPgAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &pgAssignmentRepository{db: db}
}

const assignmentColumns = `id, title, details, due_date, owner_id, classroom_id, created_at, updated_at`

func (r *pgAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	query := `INSERT INTO assignments (id, title, details, due_date, owner_id, classroom_id)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Title, a.Details, a.DueDate, a.OwnerID, a.ClassroomID)
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	a := &model.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Details, &a.DueDate, &a.OwnerID, &a.ClassroomID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAssignmentRepository) ListByClassroom(ctx context.Context, classroomID string) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE classroom_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.ListByClassroom: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Details, &a.DueDate, &a.OwnerID, &a.ClassroomID, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgAssignmentRepository.ListByClassroom: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.ListByClassroom: %w", err)
	}
	return assignments, nil
}
