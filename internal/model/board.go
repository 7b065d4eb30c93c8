package model

import "time"

// Schedule is an ad-hoc practice slot a member has announced for a day.
// Date is YYYY-MM-DD; StartTime and EndTime are HH:MM.
type Schedule struct {
	ID         string    `json:"id"`
	MemberID   string    `json:"memberId"`
	MemberName string    `json:"memberName"`
	Date       string    `json:"date"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CommunityPost is a bulletin board entry. Deletion requires the password
// chosen at creation (or an admin).
type CommunityPost struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	AuthorName   string    `json:"authorName"`
	Content      string    `json:"content"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GalleryItem is an uploaded photo or video.
type GalleryItem struct {
	ID           string    `json:"id"`
	UploaderID   string    `json:"uploaderId"`
	UploaderName string    `json:"uploaderName"`
	FileType     string    `json:"fileType"`
	FileName     string    `json:"fileName"`
	CreatedAt    time.Time `json:"createdAt"`
}
