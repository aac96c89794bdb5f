package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestStudentAssociationsBelongToUser(t *testing.T) {
	cache := &sync.Map{}
	for _, model := range []interface{}{&Submission{}, &Result{}} {
		parsed, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		relation, ok := parsed.Relationships.Relations["Student"]
		require.True(t, ok, parsed.Name)
		require.Equal(t, schema.BelongsTo, relation.Type, parsed.Name)
		require.Len(t, relation.References, 1)
		require.Equal(t, parsed.Name, relation.References[0].ForeignKey.Schema.Name)
		require.Equal(t, "student_id", relation.References[0].ForeignKey.DBName)
		require.Equal(t, "User", relation.References[0].PrimaryKey.Schema.Name)
		require.Equal(t, "id", relation.References[0].PrimaryKey.DBName)
	}
}

func TestUserStudentNumberKeepsColumnName(t *testing.T) {
	parsed, err := schema.Parse(&User{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := parsed.LookUpField("student_id")
	require.NotNil(t, field)
	require.Equal(t, "StudentNumber", field.Name)
	require.Nil(t, parsed.LookUpField("StudentID"))
}
