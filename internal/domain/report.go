package domain

// DayActivity counts widget lifecycle events inside one report day.
type DayActivity struct {
	Created    int64 `json:"created"`
	Updated    int64 `json:"updated"`
	Deleted    int64 `json:"deleted"`
	Processed  int64 `json:"processed"`
	EmailsSent int64 `json:"emails_sent"`
}

type PreviousDayActivity struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

type WidgetTotals struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Archived int64 `json:"archived"`
}

// ReportSnapshot is the point-in-time payload of the daily report email. It is never persisted.
type ReportSnapshot struct {
	ReportDate string              `json:"report_date"`
	Today      DayActivity         `json:"today"`
	Yesterday  PreviousDayActivity `json:"yesterday"`
	Totals     WidgetTotals        `json:"totals"`
}

func (r ReportSnapshot) CreatedChange() int64 {
	return r.Today.Created - r.Yesterday.Created
}

func (r ReportSnapshot) UpdatedChange() int64 {
	return r.Today.Updated - r.Yesterday.Updated
}
