package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
)

func newAuthService(env *testEnv) AuthService {
	tokens := NewTokenManager("test-secret", time.Hour, "exam-portal-test")
	return NewAuthService(env.users, env.hasher, tokens, NewValidator(), env.activity, zerolog.Nop())
}

func studentRegistration(email string) dto.UserCreateRequest {
	return dto.UserCreateRequest{
		Name:           "Asha Verma",
		Email:          email,
		Password:       "secret123",
		Role:           "student",
		School:         models.SchoolSOET,
		Department:     "CSE",
		Specialization: "AIML",
		Semester:       intPtr(3),
		StudentID:      "220001",
	}
}

func TestAuthRegisterIssuesTokenAndRecordsActivity(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	resp, err := svc.Register(ctx, studentRegistration("Asha@Example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "asha@example.com", resp.User.Email)
	require.Equal(t, models.RoleStudent, resp.User.Role)

	user, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, user.ID)
	require.NotEqual(t, "secret123", user.PasswordHash)

	require.Contains(t, env.activityActions(t), "New user registered: Asha Verma")
}

func TestAuthRegisterRejectsConflictsAndAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, studentRegistration("asha@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, studentRegistration("ASHA@example.com"))
	require.ErrorIs(t, err, ErrEmailExists)
	require.ErrorIs(t, err, ErrConflict)

	sameStudentID := studentRegistration("other@example.com")
	_, err = svc.Register(ctx, sameStudentID)
	require.ErrorIs(t, err, ErrStudentIDExists)

	admin := studentRegistration("root@example.com")
	admin.Role = "admin"
	_, err = svc.Register(ctx, admin)
	require.ErrorIs(t, err, ErrValidation)

	noID := studentRegistration("noid@example.com")
	noID.StudentID = ""
	_, err = svc.Register(ctx, noID)
	require.ErrorIs(t, err, ErrValidation)

	badSemester := studentRegistration("sem@example.com")
	badSemester.StudentID = "220002"
	badSemester.School = models.SchoolSoM
	badSemester.Semester = intPtr(7)
	_, err = svc.Register(ctx, badSemester)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Details, "semester")
}

func TestAuthLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, studentRegistration("asha@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "asha@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ASHA@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
}

func TestAuthAuthenticateRejectsUnknownUsersAndBadTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrUnauthorized)

	tokens := NewTokenManager("test-secret", time.Hour, "exam-portal-test")
	orphan, _, err := tokens.Issue(models.User{ID: 4040, Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, orphan)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthUpdateProfileKeepsIdentifiers(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	resp, err := svc.Register(ctx, studentRegistration("asha@example.com"))
	require.NoError(t, err)
	identity := Identity{UserID: resp.User.ID, Role: models.RoleStudent}

	name := "Asha V"
	updated, err := svc.UpdateProfile(ctx, identity, dto.ProfileUpdateRequest{Name: &name, Semester: intPtr(4)})
	require.NoError(t, err)
	require.Equal(t, "Asha V", updated.Name)
	require.Equal(t, 4, *updated.Semester)
	require.Equal(t, "220001", *updated.StudentID)
	require.Equal(t, models.RoleStudent, updated.Role)

	_, err = svc.UpdateProfile(ctx, identity, dto.ProfileUpdateRequest{Semester: intPtr(9)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"Asha.Verma@Example.com": "a***a@example.com",
		"ab@example.com":         "a***@example.com",
		"@example.com":           "***",
		"not-an-email":           "***",
	}
	for input, expected := range cases {
		require.Equal(t, expected, maskEmail(input), input)
	}
}
