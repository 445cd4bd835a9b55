package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"device-loan-backend/models"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Students
//
// The directory is a collaborator: the allocation code only ever reads
// students, it never creates them.

func (r *Repo) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	var s models.Student
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

// FindStudentByExternalID resolves the identifier printed on the student
// card (what kiosk and staff scans carry).
func (r *Repo) FindStudentByExternalID(ctx context.Context, studentID string) (*models.Student, error) {
	var s models.Student
	if err := r.DB.WithContext(ctx).First(&s, "student_id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) SearchStudents(ctx context.Context, query string, limit int) ([]models.Student, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var students []models.Student
	err := r.DB.WithContext(ctx).
		Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(student_id) LIKE ?", like, like, like).
		Limit(limit).
		Find(&students).Error
	return students, err
}

// UpsertStudent creates or refreshes a directory record keyed by the
// external student identifier.
func (r *Repo) UpsertStudent(ctx context.Context, in *models.Student) (*models.Student, error) {
	var s models.Student
	err := r.DB.WithContext(ctx).First(&s, "student_id = ?", in.StudentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.DB.WithContext(ctx).Create(in).Error; err != nil {
			return nil, err
		}
		return in, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FullName != "" {
		updates["full_name"] = in.FullName
	}
	if in.Email != "" {
		updates["email"] = in.Email
	}
	if in.TutorGroup != "" {
		updates["tutor_group"] = in.TutorGroup
	}
	if len(updates) > 0 {
		if err := r.DB.WithContext(ctx).Model(&s).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}
