package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Includes(t *testing.T) {
	tests := []struct {
		have, need Role
		want       bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleOperator, true},
		{RoleAdmin, RoleViewer, true},
		{RoleOperator, RoleOperator, true},
		{RoleOperator, RoleAdmin, false},
		{RoleOperator, RoleViewer, false},
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleOperator, false},
		{Role("root"), RoleOperator, false},
		{Role(""), RoleViewer, false},
		{RoleAdmin, Role("root"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.have)+"/"+string(tt.need), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.have.Includes(tt.need))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("operator")
	assert.True(t, ok)
	assert.Equal(t, RoleOperator, r)

	_, ok = ParseRole("OPERATOR")
	assert.False(t, ok)
}

func TestUser_Actor(t *testing.T) {
	assert.Equal(t, "a@example.com", User{ID: "1", Email: "a@example.com"}.Actor())
	assert.Equal(t, "1", User{ID: "1"}.Actor())
}

func TestAction_Valid(t *testing.T) {
	assert.True(t, ActionOpen.Valid())
	assert.True(t, ActionClose.Valid())
	assert.False(t, Action("foo").Valid())
	assert.False(t, Action("").Valid())
}
