package config

import "time"

const (
	// Assignment
	MaxActiveAssignments = 3

	// Feedback
	MinRating = 1
	MaxRating = 5

	// Attachments
	MaxAttachmentSize  = 5 << 20
	MaxAttachments     = 10
	MaxMultipartMemory = 32 << 20

	// Tokens
	DefaultTokenTTL = time.Hour
)

// AllowedAttachmentExt lists the file extensions accepted for complaint and message attachments.
var AllowedAttachmentExt = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// RatingLabels names each feedback rating in reports.
var RatingLabels = map[int]string{
	1: "Very poor",
	2: "Poor",
	3: "Average",
	4: "Good",
	5: "Excellent",
}
