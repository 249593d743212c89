package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
)

const humanTimeLayout = "January 2, 2006 at 3:04 PM"

var followUpTemplate = template.Must(template.New("follow_up").Parse(`Hello,

Thank you for creating the widget {{.Name}}. We wanted to follow up and let you know that your widget has been successfully processed.

Widget Details
Name: {{.Name}}
{{- if .Description}}
Description: {{.Description}}
{{- end}}
{{- if .Price}}
Price: ${{.Price}}
{{- end}}
Status: {{.Status}}
Created: {{.CreatedAt}}

If you have any questions or need assistance, please don't hesitate to reach out.

Best regards,
The Widget Team
`))

var dailyReportTemplate = template.Must(template.New("daily_report").Funcs(template.FuncMap{
	"signed": func(n int64) string { return fmt.Sprintf("%+d", n) },
}).Parse(`Daily Widget Report
Report Date: {{.Date}}

Today's Activity
Widgets Created: {{.Snapshot.Today.Created}} (yesterday: {{.Snapshot.Yesterday.Created}}, {{signed .Snapshot.CreatedChange}})
Widgets Updated: {{.Snapshot.Today.Updated}} (yesterday: {{.Snapshot.Yesterday.Updated}}, {{signed .Snapshot.UpdatedChange}})
Widgets Deleted: {{.Snapshot.Today.Deleted}}
Widgets Processed: {{.Snapshot.Today.Processed}}
Follow-up Emails Sent: {{.Snapshot.Today.EmailsSent}}

Total Statistics
Total Widgets: {{.Snapshot.Totals.Total}}
Active: {{.Snapshot.Totals.Active}}
Inactive: {{.Snapshot.Totals.Inactive}}
Archived: {{.Snapshot.Totals.Archived}}

This is an automated daily report generated by the Widget Management System.
Generated at: {{.GeneratedAt}}
`))

type followUpView struct {
	Name        string
	Description string
	Price       string
	Status      string
	CreatedAt   string
}

type dailyReportView struct {
	Snapshot    domain.ReportSnapshot
	Date        string
	GeneratedAt string
}

// Render returns the subject and body of a template rendered with data.
// widget_follow_up expects a *domain.Widget, widget_daily_report a domain.ReportSnapshot.
func Render(tmpl domain.MailTemplate, data any) (subject, body string, err error) {
	var buf bytes.Buffer
	switch tmpl {
	case domain.FollowUpTemplate:
		widget, ok := data.(*domain.Widget)
		if !ok || widget == nil {
			return "", "", fmt.Errorf("template %s expects *domain.Widget, got %T", tmpl, data)
		}

		err = followUpTemplate.Execute(&buf, newFollowUpView(widget))
		subject = "Thank You for Your Widget: " + widget.Name
	case domain.DailyReportTemplate:
		snapshot, ok := data.(domain.ReportSnapshot)
		if !ok {
			return "", "", fmt.Errorf("template %s expects domain.ReportSnapshot, got %T", tmpl, data)
		}

		err = dailyReportTemplate.Execute(&buf, newDailyReportView(snapshot))
		subject = "Daily Widget Report - " + snapshot.ReportDate
	default:
		return "", "", fmt.Errorf("unknown mail template %q", tmpl)
	}
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", tmpl, err)
	}

	return headerValue(subject), buf.String(), nil
}

// headerValue folds CR and LF into spaces so user data cannot start a new header line.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

func newFollowUpView(w *domain.Widget) followUpView {
	view := followUpView{
		Name:      w.Name,
		Status:    statusLabel(w.Status),
		CreatedAt: w.CreatedAt.Format(humanTimeLayout),
	}
	if w.Description != nil {
		view.Description = *w.Description
	}
	if w.Price != nil {
		view.Price = fmt.Sprintf("%.2f", *w.Price)
	}

	return view
}

func newDailyReportView(s domain.ReportSnapshot) dailyReportView {
	date := s.ReportDate
	if parsed, err := time.Parse(time.DateOnly, s.ReportDate); err == nil {
		date = parsed.Format("January 2, 2006")
	}

	return dailyReportView{
		Snapshot:    s,
		Date:        date,
		GeneratedAt: time.Now().Format(humanTimeLayout),
	}
}

func statusLabel(s domain.WidgetStatus) string {
	switch s {
	case domain.Active, domain.Inactive, domain.Archived:
		return strings.ToUpper(string(s[:1])) + string(s[1:])
	default:
		return "Unknown"
	}
}
