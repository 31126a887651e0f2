// Package fields builds the dotted-key field maps used to fill prompts and
// document templates, e.g. "job.title" or "applicant.first_name".
package fields

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"job-applier-go/internal/model"
)

// Map holds placeholder values keyed by dotted path
type Map map[string]string

// Build returns the fields of job and applicant. Nil arguments are skipped.
func Build(job *model.Job, applicant *model.Applicant) Map {
	m := Map{}
	if job != nil {
		m["job.link"] = job.Link
		m["job.source"] = job.Source
		m["job.source_id"] = job.SourceID
		m["job.title"] = job.Title
		m["job.description"] = job.Description
		m["job.business"] = job.Business
		m["job.location"] = job.Location
		m["job.email"] = job.Email
		m["job.date"] = ""
		if job.Date != nil {
			m["job.date"] = job.Date.Format("January 2, 2006")
		}
		m["job.salary"] = ""
		if job.Salary != nil {
			m["job.salary"] = strconv.FormatFloat(*job.Salary, 'f', -1, 64)
		}
		m["job.salary_type"] = ""
		if job.SalaryType != nil {
			m["job.salary_type"] = string(*job.SalaryType)
		}
		m["job.workspace"] = ""
		if job.Workspace != nil {
			m["job.workspace"] = string(*job.Workspace)
		}
	}
	if applicant != nil {
		m["applicant.first_name"] = applicant.FirstName
		m["applicant.last_name"] = applicant.LastName
		m["applicant.name"] = applicant.FullName()
		m["applicant.email"] = applicant.Email
		m["applicant.phone"] = applicant.Phone
		m["applicant.address"] = applicant.Address
	}
	m["date"] = time.Now().Format("January 2, 2006")
	return m
}

// With returns a copy of m extended with extra
func (m Map) With(extra Map) Map {
	out := make(Map, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Keys returns the keys of m in sorted order
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Substitute replaces every {key} in s whose key is present in m.
// Unknown placeholders and other braces are left as they are.
func Substitute(s string, m Map) string {
	if len(m) == 0 {
		return s
	}
	pairs := make([]string, 0, len(m)*2)
	for _, k := range m.Keys() {
		pairs = append(pairs, "{"+k+"}", m[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Flatten turns a decoded JSON value into dotted-key fields below prefix.
// Lists of scalars are joined with newlines, other lists are indexed.
func Flatten(prefix string, value any) Map {
	m := Map{}
	flatten(m, prefix, value)
	return m
}

func flatten(m Map, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(m, join(prefix, k), child)
		}
	case []any:
		if scalars(v) {
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, scalar(item))
			}
			m[prefix] = strings.Join(parts, "\n")
			return
		}
		for i, item := range v {
			flatten(m, join(prefix, strconv.Itoa(i)), item)
		}
	default:
		m[prefix] = scalar(v)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Capitalize upper-cases the first letter of s and lower-cases the rest
func Capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
