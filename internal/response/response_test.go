package response

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/apperrors"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType Type
		wantMsg  string
	}{
		{"input", apperrors.NewInputError("date", "bad", "日付の解析に失敗しました。"), TypeMessage, "日付の解析に失敗しました。"},
		{"not found", apperrors.NewNotFound("event", "見つかりませんでした。"), TypeMessage, "見つかりませんでした。"},
		{"state", apperrors.NewStateError("nothing", "取り消せる操作がありません。"), TypeMessage, "取り消せる操作がありません。"},
		{"gateway", apperrors.WrapGateway("get_events", errors.New("503")), TypeError, ErrorPrefix + "calendar get_events failed: 503"},
		{"plain", errors.New("boom"), TypeError, ErrorPrefix + "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestResult_JSON(t *testing.T) {
	r := Suggestions("候補です", []Suggestion{{Date: "2026-03-02", Time: "10:00", Reason: "午前"}}, nil)
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"suggestions","message":"候補です","suggestions":[{"date":"2026-03-02","time":"10:00","reason":"午前"}]}`, string(data))

	data, err = json.Marshal(Success("ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"success","message":"ok"}`, string(data))
}
