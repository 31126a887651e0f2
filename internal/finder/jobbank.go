package finder

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"job-applier-go/internal/config"
	"job-applier-go/internal/fields"
	"job-applier-go/internal/model"
)

// SourceJobBank tags jobs found on the Canadian Job Bank
const SourceJobBank = "jobbank"

const (
	searchPath = "/jobsearch/jobsearch"
	loaderPath = "/jobsearch/job_search_loader.xhtml"
	dateLayout = "January 2, 2006"
)

var (
	salaryPattern = regexp.MustCompile(`\d+\.\d+`)
	spacePattern  = regexp.MustCompile(`\s{2,}`)
)

// JobBank scrapes the Job Bank search results and posting pages
type JobBank struct {
	cfg   config.JobBankConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewJobBank creates a Job Bank finder
func NewJobBank(cfg config.JobBankConfig) *JobBank {
	return &JobBank{cfg: cfg, sleep: sleepContext}
}

func (j *JobBank) Name() string { return SourceJobBank }

// Find runs a search and enriches every result with its posting details.
// A result whose details cannot be fetched is kept with those fields empty.
func (j *JobBank) Find(ctx context.Context, title, location string) ([]*model.Job, error) {
	base, err := url.Parse(j.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid jobbank base url: %w", err)
	}

	client, err := j.newSession()
	if err != nil {
		return nil, err
	}

	articles, err := j.search(ctx, client, base, title, location)
	if err != nil {
		return nil, err
	}

	jobs := make([]*model.Job, 0, len(articles))
	for _, article := range articles {
		if err := j.pause(ctx); err != nil {
			return jobs, err
		}

		job := parseArticle(article, base)
		if err := j.fillDetails(ctx, client, job); err != nil {
			if ctx.Err() != nil {
				return jobs, ctx.Err()
			}
			logrus.WithError(err).WithFields(logrus.Fields{
				"job_source":    job.Source,
				"job_source_id": job.SourceID,
			}).Warn("Failed to fetch job details")
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (j *JobBank) newSession() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: j.cfg.Timeout}, nil
}

// search loads the first result page and then the "load more" pages until
// one comes back empty or max_pages is reached
func (j *JobBank) search(ctx context.Context, client *http.Client, base *url.URL, title, location string) ([]*goquery.Selection, error) {
	query := url.Values{}
	query.Set("searchstring", title)
	query.Set("locationstring", location)
	query.Set("sort", j.cfg.Sort)

	searchURL := base.ResolveReference(&url.URL{Path: searchPath, RawQuery: query.Encode()})
	doc, err := j.get(ctx, client, searchURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load search results: %w", err)
	}

	block := doc.Find(`[id="ajaxupdateform:result_block"]`)
	if block.Length() == 0 {
		return nil, nil
	}

	var articles []*goquery.Selection
	block.Find("article").Each(func(_ int, s *goquery.Selection) {
		articles = append(articles, s)
	})

	loaderURL := base.ResolveReference(&url.URL{Path: loaderPath}).String()
	for page := 0; j.cfg.MaxPages <= 0 || page < j.cfg.MaxPages; page++ {
		more, err := j.get(ctx, client, loaderURL)
		if err != nil {
			return nil, fmt.Errorf("failed to load more results: %w", err)
		}

		extra := more.Find("article")
		if extra.Length() == 0 {
			break
		}
		extra.Each(func(_ int, s *goquery.Selection) {
			articles = append(articles, s)
		})

		if err := j.pause(ctx); err != nil {
			return nil, err
		}
	}

	return articles, nil
}

func (j *JobBank) get(ctx context.Context, client *http.Client, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	body, err := do(client, req)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	return body, nil
}

func parseArticle(s *goquery.Selection, base *url.URL) *model.Job {
	job := &model.Job{Source: SourceJobBank}

	if href, ok := s.Find("a.resultJobItem").First().Attr("href"); ok {
		if u, err := url.Parse(href); err == nil {
			// drop ;jsessionid=... path parameters and the query
			path, _, _ := strings.Cut(u.Path, ";")
			job.Link = base.ResolveReference(&url.URL{Path: path}).String()
		}
	}

	id, _ := s.Attr("id")
	job.SourceID = strings.TrimPrefix(id, "article-")
	job.PostedOnSource = s.Find("span.postedonJB").Length() > 0

	if title := s.Find("span.noctitle").First(); title.Length() > 0 {
		job.Title = fields.Capitalize(text(title))
	}

	if date := s.Find("li.date").First(); date.Length() > 0 {
		if d, err := time.Parse(dateLayout, text(date)); err == nil {
			job.Date = &d
		}
	}

	if business := s.Find("li.business").First(); business.Length() > 0 {
		job.Business = text(business)
	}

	if loc := s.Find("li.location").First(); loc.Length() > 0 {
		job.Location = text(withoutSpans(loc))
	}

	if salary := s.Find("li.salary").First(); salary.Length() > 0 {
		salaryText := strings.ToLower(text(withoutSpans(salary)))
		switch {
		case strings.Contains(salaryText, "hourly"):
			t := model.SalaryHourly
			job.SalaryType = &t
		case strings.Contains(salaryText, "annually"):
			t := model.SalaryAnnually
			job.SalaryType = &t
		}
		if match := salaryPattern.FindString(strings.ReplaceAll(salaryText, ",", "")); match != "" {
			if amount, err := strconv.ParseFloat(match, 64); err == nil {
				job.Salary = &amount
			}
		}
	}

	if telework := s.Find("span.telework").First(); telework.Length() > 0 {
		mode := strings.ToLower(text(telework))
		switch {
		case strings.Contains(mode, "on site"):
			w := model.WorkspaceOnsite
			job.Workspace = &w
		case strings.Contains(mode, "hybrid"):
			w := model.WorkspaceHybrid
			job.Workspace = &w
		}
	}

	return job
}

// fillDetails reads the description from the posting page and the contact
// email from the "how to apply" partial response
func (j *JobBank) fillDetails(ctx context.Context, client *http.Client, job *model.Job) error {
	if job.Link == "" {
		return nil
	}

	doc, err := j.get(ctx, client, job.Link)
	if err != nil {
		return fmt.Errorf("failed to load posting: %w", err)
	}

	desc := doc.Find(`div[typeof="JobPosting"] span.hidden[property="description"]`).First()
	if desc.Length() > 0 {
		d := strings.NewReplacer("\t", "", "\n", "").Replace(strings.TrimSpace(desc.Text()))
		job.Description = spacePattern.ReplaceAllString(d, " ")
	}

	email, err := j.howToApply(ctx, client, job)
	if err != nil {
		return fmt.Errorf("failed to load how to apply: %w", err)
	}
	job.Email = email
	return nil
}

type partialResponse struct {
	Updates []struct {
		ID      string `xml:"id,attr"`
		Content string `xml:",chardata"`
	} `xml:"changes>update"`
}

func (j *JobBank) howToApply(ctx context.Context, client *http.Client, job *model.Job) (string, error) {
	form := url.Values{}
	form.Set("seekeractivity:jobid", job.SourceID)
	form.Set("seekeractivity_SUBMIT", "1")
	form.Set("jakarta.faces.ViewState", "stateless")
	form.Set("jakarta.faces.behavior.event", "action")
	form.Set("action", "applynowbutton")
	form.Set("jakarta.faces.partial.event", "click")
	form.Set("jakarta.faces.source", "seekeractivity")
	form.Set("jakarta.faces.partial.ajax", "true")
	form.Set("jakarta.faces.partial.execute", "jobid")
	form.Set("jakarta.faces.partial.render", "applynow markappliedgroup")
	form.Set("seekeractivity", "seekeractivity")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.Link, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := do(client, req)
	if err != nil {
		return "", err
	}

	var partial partialResponse
	if err := xml.Unmarshal(body, &partial); err != nil {
		return "", fmt.Errorf("failed to parse partial response: %w", err)
	}

	for _, update := range partial.Updates {
		if update.ID != "applynow" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(update.Content))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(doc.Find(`a[href^="mailto:"]`).First().Text()), nil
	}
	return "", nil
}

func (j *JobBank) pause(ctx context.Context) error {
	d := j.cfg.MinDelay
	if spread := j.cfg.MaxDelay - j.cfg.MinDelay; spread > 0 {
		d += time.Duration(rand.Int63n(int64(spread)))
	}
	return j.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func withoutSpans(s *goquery.Selection) *goquery.Selection {
	c := s.Clone()
	c.Find("span").Remove()
	return c
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
