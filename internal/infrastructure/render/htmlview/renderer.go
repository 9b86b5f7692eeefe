package htmlview

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// The element ids and classes below are what the dashboard scripts and the
// browser tests select on. Keep them stable.
const fragment = `<section class="process-dashboard" data-session="{{.Session}}" data-store-version="{{.StoreVersion}}">
	<form class="process-filters" hx-post="/v1/view/filters" hx-target="closest .process-dashboard" hx-swap="outerHTML" hx-trigger="input changed, change">
		<input type="search" id="searchFilter" name="searchTerm" placeholder="Search processes" value="{{.Filters.SearchTerm}}">
		<select id="departmentFilter" name="department">
			<option value=""{{if eq .Filters.Department ""}} selected{{end}}>All Departments</option>
			{{- range .Departments}}
			<option value="{{.}}"{{if eq . $.Filters.Department}} selected{{end}}>{{.}}</option>
			{{- end}}
		</select>
		<input type="number" id="minImpactFilter" name="minImpact" min="0" value="{{number .Filters.MinImpact}}">
		<input type="number" id="minFeasibilityFilter" name="minFeasibility" min="0" value="{{number .Filters.MinFeasibility}}">
		<input type="number" id="minAutomationFilter" name="minAutomation" min="0" value="{{number .Filters.MinAutomation}}">
		<button type="button" class="clear-filters-btn" hx-post="/v1/view/filters/clear" hx-target="closest .process-dashboard" hx-swap="outerHTML">Clear Filters</button>
	</form>
	<ul class="process-list">
		{{- range .Page.Items}}
		<li class="process-item" data-id="{{.ID}}" data-department="{{.Department}}">
			<span class="process-name">{{.Name}}</span>
			<span class="process-department">{{.Department}}</span>
			<span class="process-impact">{{.Impact}}</span>
			<span class="process-feasibility">{{.Feasibility}}</span>
			<span class="process-score">{{.AutomationScore}}</span>
			<span class="process-time">{{number .TimeSpent}}</span>
		</li>
		{{- end}}
	</ul>
	{{- with emptyMessage .}}
	<p class="process-empty" data-reason="{{$.EmptyReason}}">{{.}}</p>
	{{- end}}
	<div class="process-pagination">
		<span id="showingTotal">{{.Showing}}</span>
		{{- if .Page.ShowControls}}
		{{- range .Page.PageButtons}}
		<button type="button" class="page-btn{{if eq . $.Page.CurrentPage}} active{{end}}" data-page="{{.}}">{{.}}</button>
		{{- end}}
		{{- end}}
	</div>
</section>
`

var fragmentTemplate = template.Must(template.New("process-dashboard").Funcs(template.FuncMap{
	"number":       formatNumber,
	"emptyMessage": emptyMessage,
}).Parse(fragment))

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{tmpl: fragmentTemplate}
}

// Render executes into a buffer first so a failed render never leaves a
// half-written fragment on w.
func (r *Renderer) Render(w io.Writer, view *domain.View) error {
	if view == nil {
		return fmt.Errorf("render process view: view is nil")
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return fmt.Errorf("render process view: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write process view: %w", err)
	}
	return nil
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}

func emptyMessage(view *domain.View) string {
	if len(view.Page.Items) > 0 {
		return ""
	}
	switch view.EmptyReason {
	case domain.EmptyReasonNoData:
		return "No processes yet."
	case domain.EmptyReasonUnknownDepartment:
		return fmt.Sprintf("No process belongs to department %q.", view.Filters.Department)
	case domain.EmptyReasonDepartmentMismatch:
		return fmt.Sprintf("Department %q differs from a stored department only by case or spacing.", view.Filters.Department)
	case domain.EmptyReasonNoMatch:
		return "No processes match the current filters."
	default:
		return ""
	}
}
