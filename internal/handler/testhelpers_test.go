package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-portal-api/internal/config"
	"github.com/noah-isme/exam-portal-api/internal/database"
	"github.com/noah-isme/exam-portal-api/internal/handler"
	"github.com/noah-isme/exam-portal-api/internal/middleware"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
	"github.com/noah-isme/exam-portal-api/internal/router"
	"github.com/noah-isme/exam-portal-api/internal/service"
)

const testCookie = "token"

// harness runs the full router against an in-memory database.
type harness struct {
	app    *fiber.App
	db     *gorm.DB
	tokens *service.TokenManager
	hasher service.PasswordHasher
	feed   service.ActivityFeed
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := service.NewValidator()
	hasher := service.NewBcryptHasher(4)
	tokens := service.NewTokenManager("handler-test-secret", time.Hour, "exam-portal-test")
	feed := service.NewActivityFeed(nil, nil, "activities", logger)

	users := repository.NewUserRepository(db)
	subjects := repository.NewSubjectRepository(db)
	papers := repository.NewExamPaperRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	results := repository.NewResultRepository(db)

	activity := service.NewActivityService(repository.NewActivityRepository(db), feed, logger)
	auth := service.NewAuthService(users, hasher, tokens, validate, activity, logger)

	cfg := config.Config{AppName: "Exam Portal API", AppEnv: "test", CookieName: testCookie}
	app := fiber.New()
	middleware.Register(app, middleware.Config{CORSOrigins: "*"})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(auth, middleware.CookieConfig{Name: testCookie, TTL: tokens.TTL()}, logger),
		UserHandler:       handler.NewUserHandler(service.NewUserService(users, hasher, validate, activity, logger), 1024*1024, logger),
		SubjectHandler:    handler.NewSubjectHandler(service.NewSubjectService(subjects, users, validate, logger), logger),
		ExamPaperHandler:  handler.NewExamPaperHandler(service.NewExamPaperService(papers, subjects, submissions, validate, activity, logger), logger),
		SubmissionHandler: handler.NewSubmissionHandler(service.NewSubmissionService(submissions, papers, validate, activity, logger), logger),
		ResultHandler:     handler.NewResultHandler(service.NewResultService(results, logger), logger),
		ActivityHandler:   handler.NewActivityHandler(activity, feed, logger),
		Authenticate:      middleware.Authenticate(auth, testCookie),
		DB:                db,
	})

	return &harness{app: app, db: db, tokens: tokens, hasher: hasher, feed: feed}
}

// seed stores user with password "secret123" and returns a bearer token for it.
func (h *harness) seed(t *testing.T, user models.User) (models.User, string) {
	t.Helper()
	hash, err := h.hasher.Hash("secret123")
	require.NoError(t, err)
	user.PasswordHash = hash
	require.NoError(t, h.db.Create(&user).Error)

	token, _, err := h.tokens.Issue(user)
	require.NoError(t, err)
	return user, token
}

func (h *harness) admin(t *testing.T) string {
	_, token := h.seed(t, models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin})
	return token
}

func (h *harness) faculty(t *testing.T, email, code string) (models.User, string) {
	return h.seed(t, models.User{Name: "Dr " + code, Email: email, Role: models.RoleFaculty, FacultyID: &code})
}

func (h *harness) student(t *testing.T, email, studentID string) (models.User, string) {
	semester := 3
	return h.seed(t, models.User{
		Name: "Student " + studentID, Email: email, Role: models.RoleStudent, StudentNumber: &studentID,
		School: models.SchoolSOET, Department: "CSE", Specialization: "AIML", Semester: &semester,
	})
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Details map[string]interface{} `json:"details"`
	Meta    json.RawMessage        `json:"meta"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

// expect asserts the status code and decodes the envelope's data into target when given.
func expect(t *testing.T, resp *http.Response, status int, target interface{}) envelope {
	t.Helper()
	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, status, resp.StatusCode, body.Message)
	require.Equal(t, status < 400, body.Success)
	if target != nil {
		require.NoError(t, json.Unmarshal(body.Data, target))
	}
	return body
}

func subjectPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":           "Data Structures",
		"school":         models.SchoolSOET,
		"department":     "CSE",
		"specialization": "AIML",
		"semester":       3,
	}
}

func paperPayload(subjectID uint) map[string]interface{} {
	return map[string]interface{}{
		"title":         "Midterm",
		"description":   "Midterm examination",
		"subject_id":    subjectID,
		"duration":      60,
		"total_marks":   10,
		"passing_marks": 4,
		"instructions":  "Answer every question",
		"questions": []map[string]interface{}{
			{"question": "2 + 2 = ?", "type": "mcq", "options": []string{"1", "2", "3", "4"}, "correct_answer": "4", "marks": 5},
			{"question": "Explain recursion", "type": "subjective", "marks": 5},
		},
	}
}
