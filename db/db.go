package db

import (
	"fmt"
	"log"
	"os"

	"device-loan-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Student{},
		&models.Staff{},
		&models.Device{},
		&models.Loan{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// 同一学生最多一条活动借用
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_active_per_student
	  ON %s (student_id)
	  WHERE status IN ('reserved', 'checked_out');
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// 同一设备最多被一条活动借用引用
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_active_per_device
	  ON %s (device_id)
	  WHERE device_id IS NOT NULL AND status IN ('reserved', 'checked_out');
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// 查询逾期更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_checked_out_due
	  ON %s (due_at)
	  WHERE status = 'checked_out';
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	return nil
}
