package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		payload string
		want    Action
	}{
		{"select:0a1b2c3d", SelectAction{Prefix: "0a1b2c3d"}},
		{"page:3", PageAction{Arg: "3"}},
		{"back-to-list", BackToListAction{}},
		{"finish", FinishAction{}},
		{"cancel", CancelAction{}},
		{"set-date", SetDateAction{}},
		{"set-location", SetLocationAction{}},
		{"publish", PublishAction{}},
		{"edit-title", EditFieldAction{Field: EditTitle}},
		{"edit-short", EditFieldAction{Field: EditShort}},
		{"edit-full", EditFieldAction{Field: EditFull}},
		{"regenerate", RegenerateAction{}},
		{"publish-record:abc", PublishRecordAction{Prefix: "abc"}},
		{"unpublish-record:abc", UnpublishRecordAction{Prefix: "abc"}},
		{"delete-record:abc", DeleteRecordAction{Prefix: "abc"}},
		{"reject-record:abc", RejectRecordAction{Prefix: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := ParseAction(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAction_Rejects(t *testing.T) {
	for _, payload := range []string{"", "explode", "select-all:1"} {
		_, err := ParseAction(payload)
		assert.Error(t, err, payload)
	}
}
