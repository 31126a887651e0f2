package fields

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/model"
)

func TestBuild(t *testing.T) {
	salary := 32.5
	hourly := model.SalaryHourly
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	job := &model.Job{Title: "Developer", Business: "Acme", Salary: &salary, SalaryType: &hourly, Date: &date}
	applicant := &model.Applicant{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}

	m := Build(job, applicant)
	assert.Equal(t, "Developer", m["job.title"])
	assert.Equal(t, "Acme", m["job.business"])
	assert.Equal(t, "32.5", m["job.salary"])
	assert.Equal(t, "hourly", m["job.salary_type"])
	assert.Equal(t, "June 3, 2024", m["job.date"])
	assert.Equal(t, "", m["job.workspace"])
	assert.Equal(t, "Jane", m["applicant.first_name"])
	assert.Equal(t, "Jane Doe", m["applicant.name"])

	onlyApplicant := Build(nil, applicant)
	assert.NotContains(t, onlyApplicant, "job.title")
}

func TestSubstitute(t *testing.T) {
	m := Map{"job.title": "Developer", "applicant.first_name": "Jane", "text": "Body {job.title}"}

	got := Substitute("Dear {job.business}, {applicant.first_name} applies for {job.title}. {text}", m)
	assert.Equal(t, "Dear {job.business}, Jane applies for Developer. Body {job.title}", got)
	assert.Equal(t, "as is", Substitute("as is", nil))
}

func TestFlatten(t *testing.T) {
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`{
		"summary": "Go developer",
		"skills": ["go", "sql"],
		"experience": [{"company": "Acme", "years": 3}],
		"remote": true
	}`), &decoded))

	m := Flatten("", decoded)
	assert.Equal(t, "Go developer", m["summary"])
	assert.Equal(t, "go\nsql", m["skills"])
	assert.Equal(t, "Acme", m["experience.0.company"])
	assert.Equal(t, "3", m["experience.0.years"])
	assert.Equal(t, "true", m["remote"])

	prefixed := Flatten("resume", map[string]any{"name": "Jane"})
	assert.Equal(t, Map{"resume.name": "Jane"}, prefixed)
}

func TestWith(t *testing.T) {
	base := Map{"a": "1"}
	out := base.With(Map{"b": "2", "a": "3"})
	assert.Equal(t, Map{"a": "3", "b": "2"}, out)
	assert.Equal(t, "1", base["a"])
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Software developer", Capitalize("SOFTWARE Developer"))
	assert.Equal(t, "Élan", Capitalize("élan"))
	assert.Equal(t, "", Capitalize(""))
}
