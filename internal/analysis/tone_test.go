package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeTone(t *testing.T) {
	cases := []struct {
		name          string
		content       string
		expectedScore int
	}{
		{
			name:          "neutral content stays at baseline",
			content:       "The documents were received on Monday.",
			expectedScore: 5,
		},
		{
			name:          "professional and polite keywords raise the score",
			content:       "Dear Ms Jones, thank you for your patience. Please find the papers attached. Kind regards, Sarah",
			expectedScore: 9,
		},
		{
			name:          "exclamation marks cost two points",
			content:       "The documents were received on Monday!",
			expectedScore: 3,
		},
		{
			name:          "urgency costs two points",
			content:       "This is urgent. Reply today.",
			expectedScore: 3,
		},
		{
			name:          "empty content",
			content:       "",
			expectedScore: 5,
		},
		{
			name:          "keywords only match whole words",
			content:       "This is the third shipment.",
			expectedScore: 5,
		},
		{
			name:          "standalone greeting word counts",
			content:       "Hi Tom, the papers arrived.",
			expectedScore: 6,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := AnalyzeTone(tc.content)
			assert.Equal(t, tc.expectedScore, res.Score)
			assert.NotEmpty(t, res.Feedback)
		})
	}
}

func TestAnalyzeTone_FeedbackTiers(t *testing.T) {
	high := AnalyzeTone("Hello, thank you. Please let me know. Regards, Tom")
	assert.GreaterOrEqual(t, high.Score, 7)
	assert.Contains(t, high.Feedback, "professional and polite")

	low := AnalyzeTone("urgent!! do this now")
	assert.Less(t, low.Score, 4)
	assert.Contains(t, low.Feedback, "informal")
}

func TestAnalyzeTone_ClampsToRange(t *testing.T) {
	// Every bonus keyword at once must still cap at 10.
	content := "Hello hi dear good morning good afternoon good evening, " +
		"thank you, please, sincerely, regards, we appreciate it"
	res := AnalyzeTone(content)
	assert.Equal(t, 10, res.Score)
}
