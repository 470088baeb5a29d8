package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"competency_backend/internals/configs"
	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	cohortModel "competency_backend/internals/features/competency/cohort_stats/model"
	competencyModel "competency_backend/internals/features/competency/competencies/model"
	summaryModel "competency_backend/internals/features/competency/summaries/model"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	submissionModel "competency_backend/internals/features/diagnosis/submissions/model"
)

var DB *gorm.DB

// ConnectDB membuka koneksi sesuai DB_DRIVER (postgres | sqlite).
func ConnectDB() error {
	var (
		db  *gorm.DB
		err error
	)
	switch configs.DBDriver {
	case "sqlite":
		path := getenv("SQLITE_PATH", "competency.db")
		log.Printf("🔌 Koneksi ke SQLite (%s)...", path)
		db, err = OpenSQLite(path)
	default:
		log.Println("🔌 Koneksi ke PostgreSQL...")
		db, err = OpenPostgres(postgresDSN())
	}
	if err != nil {
		return err
	}
	DB = db
	log.Println("✅ DB connected.")
	return nil
}

func postgresDSN() string {
	// statement_timeout dibuat longgar: rekalkulasi satu semester bisa lama
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=competency&options=-c statement_timeout=60000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		getenv("DB_PORT", "5432"),
		os.Getenv("DB_NAME"),
		getenv("DB_SSLMODE", "require"),
	)
}

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a file database with foreign keys on and a single
// writer connection; SQLite serializes writers anyway.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         configs.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	if db.Dialector.Name() == "sqlite" {
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Models lists every table the service migrates. Roster/semester tables are
// owned elsewhere in production; migrating them is harmless (AutoMigrate
// only adds) and required for local and test databases.
func Models() []any {
	return []any{
		&semesterModel.SemesterModel{},
		&studentModel.DepartmentModel{},
		&studentModel.StudentModel{},
		&competencyModel.CompetencyModel{},
		&runModel.DiagnosisRunModel{},
		&runModel.DiagnosisQuestionModel{},
		&runModel.DiagnosisTargetModel{},
		&submissionModel.DiagnosisSubmissionModel{},
		&submissionModel.DiagnosisAnswerModel{},
		&summaryModel.SemesterStudentCompetencySummaryModel{},
		&cohortModel.SemesterCompetencyCohortStatModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
