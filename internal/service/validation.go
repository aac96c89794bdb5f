package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/exam-portal-api/internal/models"
)

var (
	studentIDPattern = regexp.MustCompile(`^[0-9]+$`)
	facultyIDPattern = regexp.MustCompile(`^FAC[0-9]{4}$`)
)

// NewValidator builds the validator with the portal's vocabulary rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})

	register := func(tag string, fn validator.Func) {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	register("role", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	})
	register("school", oneOfList(models.Schools))
	register("department", oneOfList(models.Departments))
	register("specialization", oneOfList(models.Specializations))
	register("studentid", func(fl validator.FieldLevel) bool {
		return studentIDPattern.MatchString(fl.Field().String())
	})
	register("facultyid", func(fl validator.FieldLevel) bool {
		return facultyIDPattern.MatchString(fl.Field().String())
	})

	return validate
}

func oneOfList(values []string) validator.Func {
	allowed := make(map[string]struct{}, len(values))
	for _, value := range values {
		allowed[value] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}

// validateAccount enforces the cross-field account rules the struct tags cannot express.
func validateAccount(user models.User) error {
	problems := fieldErrors{}

	switch user.Role {
	case models.RoleStudent:
		if user.StudentNumber == nil || *user.StudentNumber == "" {
			problems.add("student_id", "student id is required for students")
		} else if !studentIDPattern.MatchString(*user.StudentNumber) {
			problems.add("student_id", "student id must contain only numbers")
		}
		if user.Semester != nil {
			limit := models.MaxSemester(user.School)
			switch {
			case limit == 0:
				problems.add("school", "school is required when semester is set")
			case *user.Semester < 1 || *user.Semester > limit:
				problems.add("semester", fmt.Sprintf("semester must be between 1 and %d for %s", limit, user.School))
			}
		}
	case models.RoleFaculty:
		if user.FacultyID == nil || *user.FacultyID == "" {
			problems.add("faculty_id", "faculty id is required for faculty")
		} else if !facultyIDPattern.MatchString(*user.FacultyID) {
			problems.add("faculty_id", "faculty id must be in the format FAC followed by 4 digits")
		}
	case models.RoleAdmin:
	default:
		problems.add("role", "role must be student, faculty or admin")
	}

	return problems.err()
}

// validateSemesterForSchool checks a subject semester against its school.
func validateSemesterForSchool(school string, semester int) error {
	limit := models.MaxSemester(school)
	if limit == 0 {
		return newValidationError("invalid school", map[string]interface{}{"school": "unknown school"})
	}
	if semester < 1 || semester > limit {
		return newValidationError("invalid semester", map[string]interface{}{
			"semester": fmt.Sprintf("semester must be between 1 and %d for %s", limit, school),
		})
	}
	return nil
}

// validateQuestions checks type specific question rules.
func validateQuestions(questions []models.Question) error {
	problems := fieldErrors{}
	for i, question := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(question.Question) == "" {
			problems.add(prefix+".question", "question text is required")
		}
		if question.Marks < 1 {
			problems.add(prefix+".marks", "marks must be at least 1")
		}
		switch question.Type {
		case models.QuestionMCQ:
			if len(question.Options) != models.MCQOptionCount {
				problems.add(prefix+".options", fmt.Sprintf("mcq questions must have exactly %d options", models.MCQOptionCount))
			}
			if strings.TrimSpace(question.CorrectAnswer) == "" {
				problems.add(prefix+".correct_answer", "correct answer is required for mcq questions")
			}
		case models.QuestionSubjective:
		default:
			problems.add(prefix+".type", "type must be mcq or subjective")
		}
	}
	return problems.err()
}

// checkStruct runs the tag rules and converts failures into a ValidationError keyed by json path.
func checkStruct(validate *validator.Validate, payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	problems := fieldErrors{}
	for _, fe := range errs {
		problems.add(jsonFieldPath(fe), "failed on the '"+fe.Tag()+"' rule")
	}
	return problems.err()
}

func jsonFieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func sortedStrings(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
