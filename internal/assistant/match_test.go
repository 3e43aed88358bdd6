package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Weekly Sync", "weeklysync"},
		{"Café Meeting", "cafemeeting"},
		{"ＡＢＣ　定例", "abc定例"},
		{"ガイダンス", "ガイダンス"},
		{"ｶﾞｲﾀﾞﾝｽ", "ガイダンス"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, fold(tt.in))
		})
	}
}

func TestQueryVariants(t *testing.T) {
	assert.Equal(t, []string{"田中さんとの会議", "田中さん"}, queryVariants("田中さんとの会議"))
	assert.Equal(t, []string{"theweeklysync", "weeklysync", "weekly", "sync"}, queryVariants("the Weekly Sync"))
	assert.Empty(t, queryVariants(""))
	assert.Empty(t, queryVariants("   "))
}

func TestMatchesTitle(t *testing.T) {
	tests := []struct {
		title string
		query string
		want  bool
	}{
		{"週次定例ミーティング", "定例", true},
		{"Weekly Sync", "weekly sync", true},
		{"Weekly-Sync", "sync", true},
		{"Résumé review", "resume", true},
		{"1on1 with Bob", "ｂｏｂ", true},
		{"週次定例", "歓迎会", false},
		{"カイギ", "ガイギ", false},
	}
	for _, tt := range tests {
		t.Run(tt.title+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesTitle(tt.title, queryVariants(tt.query)))
		})
	}
}
