package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesOrderAndParse(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 7)
	assert.Equal(t, StageProspect, stages[0])
	assert.Equal(t, StageAccepted, stages[6])

	stages[0] = "mutated"
	assert.Equal(t, StageProspect, Stages()[0], "Stages must return a copy")

	st, err := ParseStage(" Interview ")
	require.NoError(t, err)
	assert.Equal(t, StageInterview, st)
	assert.Equal(t, 3, st.Index())
	assert.Equal(t, "Interview", st.Label())

	_, err = ParseStage("hired")
	assert.Error(t, err)
	assert.Equal(t, -1, Stage("hired").Index())
}

func TestKindTitle(t *testing.T) {
	cases := map[string]string{
		"daily_digest":     "Daily Digest",
		"resume_tailored":  "Resume tailored and ready",
		"resume_optimized": "Resume optimization complete",
		"task_due_soon":    "Task Due Soon",
		"interview":        "Interview",
	}
	for kind, want := range cases {
		assert.Equal(t, want, KindTitle(kind), kind)
	}
}

func TestTimestampAcceptsNaiveAndZonedValues(t *testing.T) {
	var payload struct {
		A Timestamp  `json:"a"`
		B Timestamp  `json:"b"`
		C *Timestamp `json:"c"`
	}
	raw := `{"a":"2024-05-01T09:30:00.123456","b":"2024-05-01T09:30:00+02:00","c":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC), payload.A.Time)
	assert.Equal(t, 7, payload.B.UTC().Hour())
	assert.Nil(t, payload.C)

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters(`{"location":"Remote","keywords":["go"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Remote", filters["location"])

	empty, err := ParseFilters("  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"{", "[1,2]", "null", `{"a":1} {"b":2}`} {
		_, err := ParseFilters(bad)
		require.Error(t, err, bad)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "Filters must be valid JSON.", err.Error())
	}
}

func TestNewSearchPrefInputDefaults(t *testing.T) {
	in, err := NewSearchPrefInput("PM roles", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultScheduleCron, in.ScheduleCron)
	assert.Equal(t, DefaultTimezone, in.Timezone)
	assert.NotNil(t, in.Filters)

	_, err = NewSearchPrefInput("  ", "{}", "", "")
	assert.True(t, IsValidationError(err))
}

func TestProfileFormUpdate(t *testing.T) {
	form := ProfileForm{
		Headline:  "  Staff engineer ",
		Skills:    "go, , kubernetes ,sql",
		Locations: "",
	}
	upd := form.Update()

	require.NotNil(t, upd.Headline)
	assert.Equal(t, "Staff engineer", *upd.Headline)
	assert.Nil(t, upd.Summary)
	assert.Equal(t, []string{"go", "kubernetes", "sql"}, upd.Skills)
	assert.Equal(t, []string{}, upd.Locations)

	b, err := json.Marshal(upd)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"summary":null`)
}

func TestSplitTasks(t *testing.T) {
	done := Timestamp{Time: time.Now()}
	open, closed := SplitTasks([]Task{
		{ID: "1"},
		{ID: "2", CompletedAt: &done},
		{ID: "3"},
	})
	require.Len(t, open, 2)
	require.Len(t, closed, 1)
	assert.Equal(t, "2", closed[0].ID)
}
