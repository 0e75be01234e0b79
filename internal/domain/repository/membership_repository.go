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

type MembershipRepository interface {
	Create(ctx context.Context, membership *model.Membership) error
	Exists(ctx context.Context, studentID, classroomID string) (bool, error)
	ListStudentsByClassroom(ctx context.Context, classroomID string) ([]model.User, error)
}

type pgMembershipRepository struct {
	db *sql.DB
}

func NewPgMembershipRepository(db *sql.DB) MembershipRepository {
	return &pgMembershipRepository{db: db}
}

func (r *pgMembershipRepository) Create(ctx context.Context, m *model.Membership) error {
	query := `INSERT INTO memberships (id, student_id, classroom_id, joined_at)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.StudentID, m.ClassroomID, m.JoinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique (student_id, classroom_id)
				return fmt.Errorf("student already joined this classroom: %w", common.ErrConflict)
			case "23503": // student or classroom row gone
				return fmt.Errorf("student or classroom does not exist: %w", common.ErrNotFound)
			}
		}
		return fmt.Errorf("pgMembershipRepository.Create: %w", err)
	}
	return nil
}

func (r *pgMembershipRepository) Exists(ctx context.Context, studentID, classroomID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM memberships WHERE student_id = $1 AND classroom_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, studentID, classroomID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgMembershipRepository.Exists: %w", err)
	}
	return exists, nil
}

func (r *pgMembershipRepository) ListStudentsByClassroom(ctx context.Context, classroomID string) ([]model.User, error) {
	query := `SELECT u.id, u.name, u.email, u.hashed_password, u.role, u.phone, u.department, u.bio, u.created_at, u.updated_at
	          FROM users u
	          JOIN memberships m ON m.student_id = u.id
	          WHERE m.classroom_id = $1
	          ORDER BY m.joined_at ASC`
	rows, err := r.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("pgMembershipRepository.ListStudentsByClassroom: %w", err)
	}
	defer rows.Close()

	var students []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.Role,
			&u.Phone, &u.Department, &u.Bio, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgMembershipRepository.ListStudentsByClassroom: %w", err)
		}
		u.HashedPassword = ""
		students = append(students, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMembershipRepository.ListStudentsByClassroom: %w", err)
	}
	return students, nil
}
