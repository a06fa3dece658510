package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestionStatusTransitions(t *testing.T) {
	cases := []struct {
		from  SuggestionStatus
		to    SuggestionStatus
		valid bool
	}{
		{SuggestionStatusProcessing, SuggestionStatusCompleted, true},
		{SuggestionStatusProcessing, SuggestionStatusFailed, true},
		{SuggestionStatusProcessing, SuggestionStatusAutoApplied, false},
		{SuggestionStatusCompleted, SuggestionStatusAutoApplied, true},
		{SuggestionStatusCompleted, SuggestionStatusFailed, false},
		{SuggestionStatusCompleted, SuggestionStatusProcessing, false},
		{SuggestionStatusFailed, SuggestionStatusProcessing, false},
		{SuggestionStatusFailed, SuggestionStatusCompleted, false},
		{SuggestionStatusAutoApplied, SuggestionStatusFailed, false},
		{SuggestionStatusAutoApplied, SuggestionStatusCompleted, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			sug := &Suggestion{Status: tc.from}
			err := sug.SetStatus(tc.to)
			if tc.valid {
				require.NoError(t, err)
				require.Equal(t, tc.to, sug.Status)
			} else {
				require.Error(t, err)
				require.Equal(t, tc.from, sug.Status)
			}
		})
	}
}

func TestAppendAuditPreservesOrder(t *testing.T) {
	sug := &Suggestion{Status: SuggestionStatusProcessing}
	sug.AppendAudit(nil, "first")
	sug.AppendAudit(nil, "second")
	actor := "agent-1"
	sug.AppendAudit(&actor, "third")

	require.Len(t, sug.AuditTrail, 3)
	require.Equal(t, "first", sug.AuditTrail[0].Detail)
	require.Equal(t, "second", sug.AuditTrail[1].Detail)
	require.Equal(t, "third", sug.AuditTrail[2].Detail)
	require.Nil(t, sug.AuditTrail[0].Actor)
	require.Equal(t, "agent-1", *sug.AuditTrail[2].Actor)
}

func TestAppendAuditAfterTerminalStatus(t *testing.T) {
	sug := &Suggestion{Status: SuggestionStatusProcessing}
	require.NoError(t, sug.SetStatus(SuggestionStatusFailed))
	sug.AppendAudit(nil, "post-mortem note")
	require.Len(t, sug.AuditTrail, 1)
}

func TestRecordError(t *testing.T) {
	sug := &Suggestion{Status: SuggestionStatusProcessing}
	sug.RecordError(nil)
	require.Empty(t, sug.Errors)

	sug.RecordError(errors.New("classification backend offline"))
	require.Equal(t, []string{"classification backend offline"}, sug.Errors)
	require.Equal(t, SuggestionStatusProcessing, sug.Status)
}
