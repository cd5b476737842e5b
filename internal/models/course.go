package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
)

// Category groups courses for the catalog.
type Category struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Slug        string  `json:"slug" gorm:"uniqueIndex;not null;size:120"`
	Description *string `json:"description" gorm:"size:1000"`
	IsActive    bool    `json:"is_active" gorm:"not null;default:true;index"`

	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:CategoryID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

type Course struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Code        string      `json:"code" gorm:"uniqueIndex;not null;size:20"`
	Title       string      `json:"title" gorm:"not null;size:200"`
	Description *string     `json:"description" gorm:"size:5000"`
	Level       CourseLevel `json:"level" gorm:"not null;size:20;default:BEGINNER;index"`

	CategoryID uint      `json:"category_id" gorm:"not null;index"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	Price         float64 `json:"price" gorm:"not null;default:0"`
	DurationWeeks int     `json:"duration_weeks" gorm:"not null;default:1"`
	MaxStudents   int     `json:"max_students" gorm:"not null;default:30"`
	IsActive      bool    `json:"is_active" gorm:"not null;default:true;index"`

	// Syllabus holds the free-form week-by-week outline.
	Syllabus datatypes.JSON `json:"syllabus,omitempty" gorm:"type:jsonb"`

	// Prerequisites are courses that must be completed before enrolling.
	// Self-references and cycles are rejected at the service layer.
	Prerequisites []*Course `json:"prerequisites,omitempty" gorm:"many2many:course_prerequisites;joinForeignKey:CourseID;joinReferences:PrerequisiteID"`

	CreatedBy uint `json:"created_by" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Course) TableName() string {
	return "courses"
}

// PrerequisiteIDs returns the IDs of the loaded prerequisite courses.
func (c *Course) PrerequisiteIDs() []uint {
	ids := make([]uint, 0, len(c.Prerequisites))
	for _, p := range c.Prerequisites {
		ids = append(ids, p.ID)
	}
	return ids
}
