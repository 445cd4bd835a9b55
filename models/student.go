package models

import "time"

const StudentTable = "dlb_students"

// Student is keyed internally by UUID; StudentID is the external
// identifier printed on the student card.
type Student struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  string `gorm:"size:64;uniqueIndex;not null" json:"studentId"`
	FullName   string `gorm:"size:255;not null" json:"fullName"`
	Email      string `gorm:"size:255" json:"email,omitempty"`
	TutorGroup string `gorm:"size:64" json:"tutorGroup,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Student) TableName() string { return StudentTable }
