package models

import (
	"time"

	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentCompleted  EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled  EnrollmentStatus = "CANCELLED"
)

// Enrollment links a student to a course. Completion rate feeds the
// course statistics endpoint.
type Enrollment struct {
	ID uint `json:"id" gorm:"primaryKey"`

	StudentID uint  `json:"student_id" gorm:"not null;index;uniqueIndex:idx_student_course"`
	Student   *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`

	CourseID uint    `json:"course_id" gorm:"not null;index;uniqueIndex:idx_student_course"`
	Course   *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`

	Status         EnrollmentStatus `json:"status" gorm:"not null;size:20;default:IN_PROGRESS;index"`
	CompletionRate float64          `json:"completion_rate" gorm:"not null;default:0"`

	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
