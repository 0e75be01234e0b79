package service

// In-memory repository fakes for the service tests. They mirror the
// behavior the SQL schema guarantees: unique classroom codes, one
// membership per (student, classroom), one submission per
// (student, assignment) with replace-on-conflict.

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"sync"
	"time"

	"classhub/internal/common"
	"classhub/internal/domain/model"
)

type memDB struct {
	mu          sync.Mutex
	seq         int
	users       map[string]model.User
	classrooms  map[string]model.Classroom
	memberships map[string]model.Membership
	assignments map[string]model.Assignment
	submissions map[string]model.Submission
}

func newMemDB() *memDB {
	return &memDB{
		users:       make(map[string]model.User),
		classrooms:  make(map[string]model.Classroom),
		memberships: make(map[string]model.Membership),
		assignments: make(map[string]model.Assignment),
		submissions: make(map[string]model.Submission),
	}
}

// tick hands out strictly increasing timestamps so ordering tests are not at
// the mercy of the clock resolution.
func (db *memDB) tick() time.Time {
	db.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(db.seq) * time.Second)
}

type memUserRepo struct{ db *memDB }

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return common.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
	}
	u.CreatedAt = r.db.tick()
	u.UpdatedAt = u.CreatedAt
	r.db.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, hashedPassword string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.HashedPassword = hashedPassword
	u.UpdatedAt = r.db.tick()
	r.db.users[id] = u
	return nil
}

type memClassroomRepo struct{ db *memDB }

func (r *memClassroomRepo) Create(_ context.Context, c *model.Classroom) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.classrooms {
		if existing.Code == c.Code {
			return common.Errorf("classroom code %q already taken: %w", c.Code, common.ErrConflict)
		}
	}
	c.CreatedAt = r.db.tick()
	c.UpdatedAt = c.CreatedAt
	r.db.classrooms[c.ID] = *c
	return nil
}

func (r *memClassroomRepo) FindByID(_ context.Context, id string) (*model.Classroom, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.classrooms[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (r *memClassroomRepo) FindByCode(_ context.Context, code string) (*model.Classroom, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.classrooms {
		if c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memClassroomRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.classrooms {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memClassroomRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Classroom, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Classroom
	for _, c := range r.db.classrooms {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memClassroomRepo) ListByStudent(_ context.Context, studentID string) ([]model.Classroom, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ms []model.Membership
	for _, m := range r.db.memberships {
		if m.StudentID == studentID {
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].JoinedAt.After(ms[j].JoinedAt) })
	var out []model.Classroom
	for _, m := range ms {
		if c, ok := r.db.classrooms[m.ClassroomID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type memMembershipRepo struct{ db *memDB }

func (r *memMembershipRepo) Create(_ context.Context, m *model.Membership) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.classrooms[m.ClassroomID]; !ok {
		return common.ErrNotFound
	}
	for _, existing := range r.db.memberships {
		if existing.StudentID == m.StudentID && existing.ClassroomID == m.ClassroomID {
			return common.Errorf("student already joined this classroom: %w", common.ErrConflict)
		}
	}
	m.JoinedAt = r.db.tick()
	r.db.memberships[m.ID] = *m
	return nil
}

func (r *memMembershipRepo) Exists(_ context.Context, studentID, classroomID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.memberships {
		if m.StudentID == studentID && m.ClassroomID == classroomID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMembershipRepo) ListStudentsByClassroom(_ context.Context, classroomID string) ([]model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ms []model.Membership
	for _, m := range r.db.memberships {
		if m.ClassroomID == classroomID {
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].JoinedAt.Before(ms[j].JoinedAt) })
	var out []model.User
	for _, m := range ms {
		if u, ok := r.db.users[m.StudentID]; ok {
			u.HashedPassword = ""
			out = append(out, u)
		}
	}
	return out, nil
}

type memAssignmentRepo struct{ db *memDB }

func (r *memAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.CreatedAt = r.db.tick()
	a.UpdatedAt = a.CreatedAt
	r.db.assignments[a.ID] = *a
	return nil
}

func (r *memAssignmentRepo) FindByID(_ context.Context, id string) (*model.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.assignments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &a, nil
}

func (r *memAssignmentRepo) ListByClassroom(_ context.Context, classroomID string) ([]model.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Assignment
	for _, a := range r.db.assignments {
		if a.ClassroomID == classroomID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memSubmissionRepo struct{ db *memDB }

func (r *memSubmissionRepo) Upsert(_ context.Context, _ *sql.Tx, sub *model.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, existing := range r.db.submissions {
		if existing.StudentID == sub.StudentID && existing.AssignmentID == sub.AssignmentID {
			existing.FileRef = sub.FileRef
			existing.Status = sub.Status
			existing.SubmittedAt = sub.SubmittedAt
			existing.Mark = nil
			existing.Feedback = nil
			existing.GradedAt = nil
			existing.GraderID = nil
			existing.AIScore = nil
			existing.AIFeedback = nil
			existing.UpdatedAt = r.db.tick()
			r.db.submissions[id] = existing
			sub.ID = id
			return nil
		}
	}
	sub.UpdatedAt = r.db.tick()
	r.db.submissions[sub.ID] = *sub
	return nil
}

func (r *memSubmissionRepo) FindByID(_ context.Context, id string) (*model.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *memSubmissionRepo) FindByStudentAndAssignment(_ context.Context, studentID, assignmentID string) (*model.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.submissions {
		if s.StudentID == studentID && s.AssignmentID == assignmentID {
			s := s
			return &s, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memSubmissionRepo) ListByAssignment(_ context.Context, assignmentID string) ([]model.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Submission
	for _, s := range r.db.submissions {
		if s.AssignmentID == assignmentID {
			if u, ok := r.db.users[s.StudentID]; ok {
				name := u.Name
				s.StudentName = &name
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *memSubmissionRepo) SetGrade(_ context.Context, id string, mark float64, feedback *string, graderID string, gradedAt time.Time) (*model.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	s.Mark = &mark
	s.Feedback = feedback
	s.GraderID = &graderID
	s.GradedAt = &gradedAt
	s.Status = model.StatusGraded
	s.UpdatedAt = r.db.tick()
	r.db.submissions[id] = s
	return &s, nil
}

func (r *memSubmissionRepo) SetReturned(_ context.Context, id string) (*model.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.submissions[id]
	if !ok || s.Status != model.StatusGraded {
		return nil, common.ErrNotFound
	}
	s.Status = model.StatusReturned
	s.UpdatedAt = r.db.tick()
	r.db.submissions[id] = s
	return &s, nil
}

func (r *memSubmissionRepo) SetAIResult(_ context.Context, id string, score float64, feedback string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.submissions[id]
	if !ok {
		return common.ErrNotFound
	}
	s.AIScore = &score
	s.AIFeedback = &feedback
	s.UpdatedAt = r.db.tick()
	r.db.submissions[id] = s
	return nil
}

// fakeEnqueuer records enqueue calls instead of touching Postgres and Redis.
type fakeEnqueuer struct {
	mu    sync.Mutex
	calls []model.AIPreGradePayload
	err   error
}

func (f *fakeEnqueuer) EnqueueAIPreGradeJob(_ context.Context, _ *sql.Tx, submissionID, fileRef string) (*model.GradingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, model.AIPreGradePayload{SubmissionID: submissionID, FileRef: fileRef})
	return &model.GradingJob{ID: "job-1", SubmissionID: submissionID, Status: model.JobStatusQueued}, nil
}

// nopDriver backs the *sql.DB the submit transaction runs on. The fakes never
// execute SQL, so the transaction only has to begin and commit.
type nopDriver struct{}

func (nopDriver) Open(string) (driver.Conn, error) { return nopConn{}, nil }

type nopConn struct{}

func (nopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (nopConn) Close() error                        { return nil }
func (nopConn) Begin() (driver.Tx, error)           { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

var registerNopDriver sync.Once

func newNopDB() *sql.DB {
	registerNopDriver.Do(func() { sql.Register("noptx", nopDriver{}) })
	db, err := sql.Open("noptx", "")
	if err != nil {
		panic(err)
	}
	return db
}
