package github

import "time"

// Notification is one element of the GET /notifications response.
type Notification struct {
	ID         string     `json:"id"`
	Reason     string     `json:"reason"`
	Unread     bool       `json:"unread"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Subject    Subject    `json:"subject"`
	Repository Repository `json:"repository"`
}

// Subject describes the issue, pull request, release... a notification is about.
type Subject struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
	// LatestCommentURL is an API URL; null for subjects without comments.
	LatestCommentURL *string `json:"latest_comment_url"`
}

// Repository is the repository a notification belongs to.
type Repository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}
