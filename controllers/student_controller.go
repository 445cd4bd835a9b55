package controllers

import (
	"net/http"

	"device-loan-backend/app"
	"device-loan-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StudentController struct{ *Srv }

func NewStudentController(s *Srv) *StudentController { return &StudentController{Srv: s} }

// GET /api/students/lookup?studentId= — card scan, exact match
// GET /api/students/lookup?query=    — name/email/id search
func (sc *StudentController) Lookup(c *gin.Context) {
	if studentID := c.Query("studentId"); studentID != "" {
		student, err := sc.Repo.FindStudentByExternalID(c.Request.Context(), studentID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, app.H{"data": student})
		return
	}

	if query := c.Query("query"); query != "" {
		students, err := sc.Repo.SearchStudents(c.Request.Context(), query, 10)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, app.H{"data": students})
		return
	}

	c.JSON(http.StatusBadRequest, app.H{"error": "provide studentId or query parameter"})
}

// POST /api/students — upsert from QR scan or manual entry
func (sc *StudentController) Upsert(c *gin.Context) {
	var in struct {
		StudentID  string `json:"studentId" binding:"required"`
		FullName   string `json:"fullName" binding:"required"`
		Email      string `json:"email"`
		TutorGroup string `json:"tutorGroup"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "studentId and fullName are required"})
		return
	}

	student, err := sc.Repo.UpsertStudent(c.Request.Context(), &models.Student{
		ID:         uuid.NewString(),
		StudentID:  in.StudentID,
		FullName:   in.FullName,
		Email:      in.Email,
		TutorGroup: in.TutorGroup,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"data": student})
}
