package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateUserCreate validates user creation business rules
func (bv *BusinessValidator) ValidateUserCreate(req *UserCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Email != strings.ToLower(strings.TrimSpace(req.Email)) {
		errors = append(errors, ValidationError{
			Field:   "email",
			Message: "must be lowercase without surrounding whitespace",
			Value:   req.Email,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateUserUpdate validates user update business rules
func (bv *BusinessValidator) ValidateUserUpdate(req *UserUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validatePrerequisiteList(req.Prerequisites)...)

	return errors
}

// ValidateCourseUpdate validates course update business rules
func (bv *BusinessValidator) ValidateCourseUpdate(req *CourseUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidatePrerequisitesBatch validates a batch prerequisite replacement
// request. Each course may appear at most once in the batch.
func (bv *BusinessValidator) ValidatePrerequisitesBatch(req *PrerequisitesBatchRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	seen := make(map[uint]bool, len(req.Items))
	for _, item := range req.Items {
		if seen[item.CourseID] {
			errors = append(errors, ValidationError{
				Field:   "items",
				Message: "contains duplicate course ids",
				Value:   item.CourseID,
				Rule:    "business_logic",
			})
			break
		}
		seen[item.CourseID] = true
		errors = append(errors, bv.validatePrerequisiteList(item.Prerequisites)...)
	}

	return errors
}

// ValidatePrerequisites validates a prerequisite replacement request
func (bv *BusinessValidator) ValidatePrerequisites(req *PrerequisitesUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validatePrerequisiteList(req.Prerequisites)...)

	return errors
}

func (bv *BusinessValidator) validatePrerequisiteList(ids []uint) ValidationErrors {
	var errors ValidationErrors

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			errors = append(errors, ValidationError{
				Field:   "prerequisites",
				Message: "contains duplicate course ids",
				Value:   id,
				Rule:    "business_logic",
			})
			break
		}
		seen[id] = true
	}

	return errors
}

var courseCodePattern = regexp.MustCompile(`^[A-Z]{2,5}-?\d{2,4}$`)

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Role must be one of the registry roles
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})

	// Course level validation
	bv.validate.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		level := models.CourseLevel(fl.Field().String())
		switch level {
		case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
			return true
		}
		return false
	})

	// Course code: 2-5 uppercase letters, optional dash, 2-4 digits (e.g. CS-101)
	bv.validate.RegisterValidation("course_code", func(fl validator.FieldLevel) bool {
		return courseCodePattern.MatchString(fl.Field().String())
	})

	// Course duration in weeks (1-104)
	bv.validate.RegisterValidation("course_duration", func(fl validator.FieldLevel) bool {
		weeks := fl.Field().Int()
		return weeks >= 1 && weeks <= 104
	})

	// Password strength: at least 8 chars with a letter and a digit
	bv.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		if len(password) < 8 {
			return false
		}
		hasLetter, hasDigit := false, false
		for _, r := range password {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})
}
