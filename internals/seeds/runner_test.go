package seeds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	competencyModel "competency_backend/internals/features/competency/competencies/model"
	"competency_backend/internals/helpers/testdb"
)

func TestRunAllSeeds_Idempotent(t *testing.T) {
	db := testdb.OpenEmpty(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, RunAllSeeds(ctx, db, "academics/data_roster.json"))
	}

	var n int64
	require.NoError(t, db.Model(&competencyModel.CompetencyModel{}).Count(&n).Error)
	assert.EqualValues(t, len(competencyModel.Codes), n)

	require.NoError(t, db.Model(&semesterModel.SemesterModel{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	require.NoError(t, db.Model(&studentModel.DepartmentModel{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	require.NoError(t, db.Model(&studentModel.StudentModel{}).Count(&n).Error)
	assert.EqualValues(t, 5, n)

	var leave studentModel.StudentModel
	require.NoError(t, db.First(&leave, "student_number = ?", "2025011").Error)
	assert.Equal(t, studentModel.AcademicStatusLeave, leave.StudentAcademicStatus)
	assert.Nil(t, leave.StudentDepartmentID)
}

func TestRunAllSeeds_CatalogOnly(t *testing.T) {
	db := testdb.OpenEmpty(t)
	require.NoError(t, RunAllSeeds(context.Background(), db, ""))

	var n int64
	require.NoError(t, db.Model(&studentModel.StudentModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRunAllSeeds_MissingFile(t *testing.T) {
	db := testdb.OpenEmpty(t)
	assert.Error(t, RunAllSeeds(context.Background(), db, "academics/nope.json"))
}
