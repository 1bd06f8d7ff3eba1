package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Machine Learning", "machine-learning"},
		{"machine-learning", "machine-learning"},
		{"  Machine   Learning  ", "machine-learning"},
		{"snake_case_tag", "snake-case-tag"},
		{"Work / Side  Projects/", "work/side-projects"},
		{"//a//b//", "a/b"},
		{"--Leading-and-trailing--", "leading-and-trailing"},
		{"Café Culture", "café-culture"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gt.Value(t, model.Slugify(tt.input)).Equal(tt.want)
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	for _, s := range []string{"Machine Learning", "Work / Side Projects", "a_b-c d"} {
		once := model.Slugify(s)
		gt.Value(t, model.Slugify(once)).Equal(once)
	}
}

func TestNewTag(t *testing.T) {
	tag := model.NewTag("user-1", "  Deep Learning ")
	gt.Value(t, tag.UserID).Equal("user-1")
	gt.Value(t, tag.DisplayName).Equal("Deep Learning")
	gt.Value(t, tag.Slug).Equal("deep-learning")
	gt.String(t, string(tag.ID)).NotEqual("")
	gt.Bool(t, tag.HasEmbedding()).False()
}
