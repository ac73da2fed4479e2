package recruitment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports a caller-supplied value that breaks the input contract.
type ValidationError struct {
	Subject string
	Fields  []string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid %s: %v", e.Subject, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(e.Fields, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateProfile checks the required fields of a profile snapshot.
func ValidateProfile(p *ProfileSnapshot) error {
	if p == nil {
		return &ValidationError{Subject: "profile", Err: errors.New("profile snapshot is required")}
	}
	return check("profile", p)
}

// ValidateVacancy checks the required fields of a vacancy snapshot.
func ValidateVacancy(v *VacancySnapshot) error {
	if v == nil {
		return &ValidationError{Subject: "vacancy", Err: errors.New("vacancy snapshot is required")}
	}
	return check("vacancy", v)
}

// ValidateQuestion checks a question spec, including options of multiple-choice questions.
func ValidateQuestion(q *QuestionSpec) error {
	if q == nil {
		return &ValidationError{Subject: "question", Err: errors.New("question is required")}
	}
	if err := check("question", q); err != nil {
		return err
	}
	if q.Type == QuestionMultipleChoice && len(q.Options) < 2 {
		return &ValidationError{
			Subject: "question",
			Fields:  []string{"Options: multiple-choice questions need at least two options"},
			Err:     errors.New("missing options"),
		}
	}
	return nil
}

func check(subject string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Subject: subject, Err: err}
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Subject: subject, Fields: fields, Err: err}
}
