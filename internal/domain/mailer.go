package domain

import "context"

type MailTemplate string

const (
	FollowUpTemplate    MailTemplate = "widget_follow_up"
	DailyReportTemplate MailTemplate = "widget_daily_report"
)

type Mailer interface {
	Send(ctx context.Context, to string, template MailTemplate, data any) error
}
