package audit

// Entry mirrors the NBNLG log entity: one row per remote write, recording
// who sent what where and a short excerpt of the reply.
type Entry struct {
	Timestamp string `json:"U_NDTTM"`
	Username  string `json:"U_NUSID"`
	Method    string `json:"U_NLGMT"`
	URL       string `json:"U_NLURL"`
	Body      string `json:"U_NLGBD"`
	Response  string `json:"U_NLGRP"`
	Status    int    `json:"U_NLGST"`
	App       string `json:"U_NAPP"`
}

// Row is the local copy of an Entry, grouped by submission for the
// reconciliation export.
type Row struct {
	SubmissionID string
	LoggedAt     string
	Username     string
	Method       string
	URL          string
	Status       int
	Response     string
}
