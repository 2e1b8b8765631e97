package snapshot

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// ParseJSON decodes a JSON request. Every malformed field is reported with
// its path, e.g. "workItems.2.durationDays".
func ParseJSON(data []byte) (*Request, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse json snapshot: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	p := &parser{}
	req := &Request{}

	root.Get("workItems").ForEach(func(i, v gjson.Result) bool {
		req.WorkItems = append(req.WorkItems, p.workItem(fmt.Sprintf("workItems.%d", i.Int()), v))
		return true
	})
	root.Get("dependencies").ForEach(func(i, v gjson.Result) bool {
		req.Dependencies = append(req.Dependencies, p.dependency(fmt.Sprintf("dependencies.%d", i.Int()), v))
		return true
	})
	root.Get("milestones").ForEach(func(i, v gjson.Result) bool {
		req.Milestones = append(req.Milestones, p.milestone(fmt.Sprintf("milestones.%d", i.Int()), v))
		return true
	})
	req.Mode = cpm.Mode(root.Get("mode").String())
	req.Today = p.date("today", root.Get("today"))

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("parse json snapshot: %w", errors.Join(p.errs...))
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// parser collects field errors instead of stopping at the first one.
type parser struct {
	errs []error
}

func (p *parser) fail(path, format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
}

func (p *parser) str(path string, v gjson.Result, required bool) string {
	if !v.Exists() || v.Type == gjson.Null {
		if required {
			p.fail(path, "is required")
		}
		return ""
	}
	if v.Type != gjson.String {
		p.fail(path, "must be a string")
		return ""
	}
	return v.Str
}

func (p *parser) integer(path string, v gjson.Result) *int {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if v.Type != gjson.Number || v.Num != float64(v.Int()) {
		p.fail(path, "must be an integer")
		return nil
	}
	n := int(v.Int())
	return &n
}

func (p *parser) date(path string, v gjson.Result) *domain.Date {
	s := p.str(path, v, false)
	if s == "" {
		return nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		p.fail(path, "must be a YYYY-MM-DD date")
		return nil
	}
	return &d
}

func (p *parser) ids(path string, v gjson.Result) []string {
	var out []string
	if !v.Exists() {
		return nil
	}
	if !v.IsArray() {
		p.fail(path, "must be an array of ids")
		return nil
	}
	v.ForEach(func(i, id gjson.Result) bool {
		if s := p.str(fmt.Sprintf("%s.%d", path, i.Int()), id, true); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

func (p *parser) workItem(path string, v gjson.Result) domain.WorkItem {
	return domain.WorkItem{
		ID:           p.str(path+".id", v.Get("id"), true),
		Title:        p.str(path+".title", v.Get("title"), false),
		DurationDays: p.integer(path+".durationDays", v.Get("durationDays")),
		StartDate:    p.date(path+".startDate", v.Get("startDate")),
		EndDate:      p.date(path+".endDate", v.Get("endDate")),
		StartAfter:   p.date(path+".startAfter", v.Get("startAfter")),
		StartBefore:  p.date(path+".startBefore", v.Get("startBefore")),
		Status:       domain.Status(p.str(path+".status", v.Get("status"), false)),
	}
}

func (p *parser) dependency(path string, v gjson.Result) domain.Dependency {
	d := domain.Dependency{
		PredecessorID:  p.str(path+".predecessorId", v.Get("predecessorId"), true),
		SuccessorID:    p.str(path+".successorId", v.Get("successorId"), true),
		DependencyType: domain.DependencyType(p.str(path+".dependencyType", v.Get("dependencyType"), false)),
	}
	if lag := p.integer(path+".leadLagDays", v.Get("leadLagDays")); lag != nil {
		d.LeadLagDays = *lag
	}
	return d
}

func (p *parser) milestone(path string, v gjson.Result) domain.Milestone {
	m := domain.Milestone{
		ID:           p.str(path+".id", v.Get("id"), true),
		Title:        p.str(path+".title", v.Get("title"), false),
		IsCompleted:  v.Get("isCompleted").Bool(),
		CompletedAt:  p.date(path+".completedAt", v.Get("completedAt")),
		Contributors: p.ids(path+".contributingWorkItemIds", v.Get("contributingWorkItemIds")),
		Dependents:   p.ids(path+".dependentWorkItemIds", v.Get("dependentWorkItemIds")),
	}
	if target := p.date(path+".targetDate", v.Get("targetDate")); target != nil {
		m.TargetDate = *target
	} else {
		p.fail(path+".targetDate", "is required")
	}
	return m
}
