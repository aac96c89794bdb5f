package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/repository"
)

func newUserService(env *testEnv) UserService {
	return NewUserService(env.users, env.hasher, NewValidator(), env.activity, zerolog.Nop())
}

func facultyPayload(email, code string) dto.UserCreateRequest {
	return dto.UserCreateRequest{Name: "Dr Rao", Email: email, Password: "secret123", Role: "faculty", FacultyID: code}
}

func TestUserBulkCreateReportsProblemsAndInsertsNothing(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.BulkCreate(ctx, admin, []dto.UserCreateRequest{
		facultyPayload("a@example.com", "FAC0001"),
		{Name: "No Password", Email: "b@example.com", Role: "faculty", FacultyID: "FAC0002"},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	invalid, ok := validationErr.Details["invalid_users"].([]dto.InvalidUserRecord)
	require.True(t, ok)
	require.Len(t, invalid, 1)
	require.Equal(t, 1, invalid[0].Index)
	require.Contains(t, invalid[0].Errors, "password")

	_, err = svc.BulkCreate(ctx, admin, []dto.UserCreateRequest{
		facultyPayload("dup@example.com", "FAC0001"),
		facultyPayload("DUP@example.com", "FAC0002"),
	})
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"dup@example.com"}, validationErr.Details["duplicates"])

	_, err = svc.BulkCreate(ctx, admin, []dto.UserCreateRequest{facultyPayload("admin@example.com", "FAC0003")})
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"admin@example.com"}, validationErr.Details["emails"])

	users, err := env.users.List(ctx, repository.UserFilter{Role: models.RoleFaculty})
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUserBulkCreateInsertsBatch(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	svc := newUserService(env)

	resp, err := svc.BulkCreate(context.Background(), admin, []dto.UserCreateRequest{
		facultyPayload("one@example.com", "FAC0001"),
		facultyPayload("two@example.com", "FAC0002"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.CreatedCount)
	require.Len(t, resp.Users, 2)
	require.Contains(t, env.activityActions(t), "Bulk created 2 users")
}

func TestUserBulkCreateFailsAtomicallyOnIdentifierClash(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.BulkCreate(ctx, admin, []dto.UserCreateRequest{
		facultyPayload("one@example.com", "FAC0001"),
		facultyPayload("two@example.com", "FAC0001"),
	})
	require.ErrorIs(t, err, ErrConflict)

	users, err := env.users.List(ctx, repository.UserFilter{Role: models.RoleFaculty})
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUserDeleteGuards(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	faculty := env.seedFaculty(t, "fac@example.com", "FAC0001")
	svc := newUserService(env)
	ctx := context.Background()

	require.ErrorIs(t, svc.Delete(ctx, admin, admin.UserID), ErrValidation)
	require.ErrorIs(t, svc.Delete(ctx, admin, 9999), ErrUserNotFound)
	require.NoError(t, svc.Delete(ctx, admin, faculty.UserID))

	_, err := svc.BulkDelete(ctx, admin, dto.BulkUserDeleteRequest{UserIDs: []uint{faculty.UserID}})
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.BulkDelete(ctx, admin, dto.BulkUserDeleteRequest{UserIDs: []uint{admin.UserID}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUserGetAllowsAdminOrSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	faculty := env.seedFaculty(t, "fac@example.com", "FAC0001")
	student := env.seedStudent(t, "stu@example.com", "1001", "AIML", 3)
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.Get(ctx, admin, student.UserID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, student, student.UserID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, faculty, student.UserID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUserUpdateKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	student := env.seedStudent(t, "stu@example.com", "1001", "AIML", 3)
	svc := newUserService(env)

	name := "Renamed Student"
	updated, err := svc.Update(context.Background(), admin, student.UserID, dto.UserUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, "1001", *updated.StudentID)
	require.Equal(t, "AIML", updated.Specialization)

	taken := "admin@example.com"
	_, err = svc.Update(context.Background(), admin, student.UserID, dto.UserUpdateRequest{Email: &taken})
	require.ErrorIs(t, err, ErrEmailExists)

	bogus := "superuser"
	_, err = svc.Update(context.Background(), admin, student.UserID, dto.UserUpdateRequest{Role: &bogus})
	require.ErrorIs(t, err, ErrValidation)

	stored, err := env.users.GetByID(context.Background(), student.UserID)
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, stored.Role)
}

func TestDecodeBulkUsers(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`[{"name":"Dr Rao","email":"rao@example.com","password":"secret123","role":"faculty","faculty_id":"FAC0009"}]`)...)
	users, err := DecodeBulkUsers(data)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "rao@example.com", users[0].Email)

	_, err = DecodeBulkUsers([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00})
	require.ErrorIs(t, err, ErrValidation)

	_, err = DecodeBulkUsers([]byte(`{"not":"an array"}`))
	require.ErrorIs(t, err, ErrValidation)

	_, err = DecodeBulkUsers([]byte("   "))
	require.ErrorIs(t, err, ErrValidation)
}
