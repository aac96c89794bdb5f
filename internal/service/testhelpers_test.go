package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/database"
	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	subjects    repository.SubjectRepository
	papers      repository.ExamPaperRepository
	submissions repository.SubmissionRepository
	results     repository.ResultRepository
	activities  repository.ActivityRepository
	activity    ActivityService
	hasher      PasswordHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	activities := repository.NewActivityRepository(db)
	return &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		subjects:    repository.NewSubjectRepository(db),
		papers:      repository.NewExamPaperRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		results:     repository.NewResultRepository(db),
		activities:  activities,
		activity:    NewActivityService(activities, nil, zerolog.Nop()),
		hasher:      NewBcryptHasher(4),
	}
}

func (e *testEnv) examPaperService() ExamPaperService {
	return NewExamPaperService(e.papers, e.subjects, e.submissions, NewValidator(), e.activity, zerolog.Nop())
}

func (e *testEnv) submissionService() SubmissionService {
	return NewSubmissionService(e.submissions, e.papers, NewValidator(), e.activity, zerolog.Nop())
}

func (e *testEnv) seedUser(t *testing.T, user models.User) Identity {
	t.Helper()
	if user.PasswordHash == "" {
		hash, err := e.hasher.Hash("secret123")
		require.NoError(t, err)
		user.PasswordHash = hash
	}
	require.NoError(t, e.db.Create(&user).Error)
	return IdentityFromUser(user)
}

func (e *testEnv) seedAdmin(t *testing.T) Identity {
	return e.seedUser(t, models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin})
}

func (e *testEnv) seedFaculty(t *testing.T, email, code string) Identity {
	return e.seedUser(t, models.User{Name: "Dr " + code, Email: email, Role: models.RoleFaculty, FacultyID: strPtr(code)})
}

func (e *testEnv) seedStudent(t *testing.T, email, studentID, specialization string, semester int) Identity {
	return e.seedUser(t, models.User{
		Name: "Student " + studentID, Email: email, Role: models.RoleStudent, StudentNumber: strPtr(studentID),
		School: models.SchoolSOET, Department: "CSE", Specialization: specialization, Semester: intPtr(semester),
	})
}

func (e *testEnv) seedSubject(t *testing.T, faculty Identity, specialization string, semester int) models.Subject {
	t.Helper()
	subject := models.Subject{
		Name: "Data Structures", FacultyName: "Dr", FacultyID: faculty.UserID, School: models.SchoolSOET,
		Department: "CSE", Specialization: specialization, Semester: semester,
	}
	require.NoError(t, e.subjects.Create(context.Background(), &subject))
	return subject
}

func paperRequest(subjectID uint, title string) dto.ExamPaperCreateRequest {
	return dto.ExamPaperCreateRequest{
		Title:        title,
		Description:  "Midterm examination",
		SubjectID:    subjectID,
		Duration:     90,
		TotalMarks:   10,
		PassingMarks: intPtr(4),
		Instructions: "Answer every question",
		Questions: []dto.QuestionPayload{
			{Question: "2 + 2 = ?", Type: "mcq", Options: []string{"1", "2", "3", "4"}, CorrectAnswer: "4", Marks: 5},
			{Question: "Explain recursion", Type: "subjective", Marks: 5},
		},
	}
}

// approvedPaper creates a paper as faculty and approves it as admin.
func (e *testEnv) approvedPaper(t *testing.T, faculty, admin Identity, subject models.Subject) dto.ExamPaperResponse {
	t.Helper()
	svc := e.examPaperService()
	created, err := svc.Create(context.Background(), faculty, paperRequest(subject.ID, "Midterm "+uuid.NewString()[:8]))
	require.NoError(t, err)
	approved, err := svc.Approve(context.Background(), admin, created.ID)
	require.NoError(t, err)
	return approved
}

func (e *testEnv) activityActions(t *testing.T) []string {
	t.Helper()
	entries, _, err := e.activities.List(context.Background(), repository.ActivityFilter{Page: 1, PageSize: 100})
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type failingRecorder struct {
	calls int
}

func (f *failingRecorder) Record(context.Context, ActivityEntry) (dto.ActivityResponse, error) {
	f.calls++
	return dto.ActivityResponse{}, errors.New("activity store unavailable")
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
