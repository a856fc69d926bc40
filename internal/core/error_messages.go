package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Admins can quote the code when reporting a failed upload.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Patterns: "duplicate key", "unique constraint", "violates unique"
//	DB002 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//	DB003 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//	DB004 - Timeout: Operation timed out
//	        Patterns: "timeout"
//	DB005 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Required field: A required word field is empty
//	         Patterns: "required field"
//	VAL002 - No valid rows: Nothing in the file passed validation
//	         Sentinel: ErrNoValidRows
//	VAL003 - Conflict policy: Unknown overwrite policy
//	         Patterns: "invalid conflict policy"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV: Quotes or delimiters could not be read
//	          Patterns: "bare \" in non-quoted-field", "extraneous or missing \""
//	FILE003 - Unreadable file: The file could not be read
//	          Sentinel: ErrUnreadableInput
//	FILE004 - No file: No file, text or URL was provided
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The uploaded file is empty
//	          Sentinel: ErrEmptySource
//	FILE006 - Workbook: The workbook has no sheets or is damaged
//	          Sentinel: ErrEmptyWorkbook; Patterns: "open workbook"
//
// # Spreadsheet Errors (SHEET001-SHEET099)
//
//	SHEET001 - Invalid URL: Not a Google Sheets link
//	           Patterns: "invalid google sheets url"
//	SHEET002 - Fetch failed: The sheet could not be downloaded
//	           Patterns: "fetch sheet"
//	SHEET003 - Not configured: Spreadsheet import is disabled
//	           Sentinel: ErrSheetsNotConfigured
//
// # Course Errors (CRS001-CRS099)
//
//	CRS001 - Unknown course: The course does not exist
//	         Sentinel: ErrUnknownCourse
//	CRS002 - Invalid day: Day names look like Day1, Day2, ...
//	         Sentinel: ErrInvalidDayName
//	CRS003 - Day exists: The day already has words
//	         Sentinel: ErrDayExists
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload cancelled       Patterns: "upload cancelled"
//	UPL002 - System busy            Sentinel: ErrTooManyUploads
//	UPL003 - Session expired        Sentinel: ErrUploadNotFound
//	UPL004 - Request cancelled      Patterns: "context canceled"
//	UPL005 - Request timeout        Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// original technical error.
//
// Sentinels are matched with errors.Is first. Patterns are then matched
// case-insensitively with strings.Contains; the first match wins, so more
// specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages are checked with errors.Is before any pattern.
var sentinelMessages = []sentinelMessage{
	{ErrUnknownCourse, UserMessage{
		Message: "Unknown course",
		Action:  "Choose one of CSAT, IELTS, TOEFL, TOEIC or COLLOCATIONS",
		Code:    "CRS001",
	}},
	{ErrInvalidDayName, UserMessage{
		Message: "Invalid day",
		Action:  "Use a day name like Day1 or a positive day number",
		Code:    "CRS002",
	}},
	{ErrDayExists, UserMessage{
		Message: "This day already has words",
		Action:  "Choose overwrite to replace them or pick another day",
		Code:    "CRS003",
	}},
	{ErrNoValidRows, UserMessage{
		Message: "No rows passed validation",
		Action:  "Every row needs a word (or collocation) and a meaning",
		Code:    "VAL002",
	}},
	{ErrUnreadableInput, UserMessage{
		Message: "The file could not be read",
		Action:  "Try selecting the file again",
		Code:    "FILE003",
	}},
	{ErrEmptySource, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file or paste text with at least one row",
		Code:    "FILE005",
	}},
	{ErrEmptyWorkbook, UserMessage{
		Message: "The workbook has no sheets",
		Action:  "Put the words on the first sheet of the workbook",
		Code:    "FILE006",
	}},
	{ErrSheetsNotConfigured, UserMessage{
		Message: "Spreadsheet import is not available",
		Action:  "Upload a CSV export of the sheet instead",
		Code:    "SHEET003",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{ErrUploadNotFound, UserMessage{
		Message: "Upload session not found",
		Action:  "The upload may have expired. Please start a new upload",
		Code:    "UPL003",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Please try the upload again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Please try the upload again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Validation Errors
	// =========================================================================
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "A required word field is empty",
			Action:  "Fill in the word (or collocation) and meaning columns",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid conflict policy",
		msg: UserMessage{
			Message: "Unknown overwrite option",
			Action:  "Use overwrite, skip or fail",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into several days",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into several days",
			Code:    "FILE001",
		},
	},
	{
		pattern: "bare \" in non-quoted-field",
		msg: UserMessage{
			Message: "File has a stray quote character",
			Action:  "Remove the quote or wrap the whole cell in quotes",
			Code:    "FILE002",
		},
	},
	{
		pattern: "extraneous or missing \"",
		msg: UserMessage{
			Message: "File has an unterminated quoted cell",
			Action:  "Check that every opening quote has a closing quote",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file, text or link was provided",
			Action:  "Select a file, paste rows or enter a spreadsheet link",
			Code:    "FILE004",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Save it again as .xlsx or export it as CSV",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Spreadsheet Errors
	// =========================================================================
	{
		pattern: "invalid google sheets url",
		msg: UserMessage{
			Message: "This is not a Google Sheets link",
			Action:  "Copy the link from the browser address bar of the sheet",
			Code:    "SHEET001",
		},
	},
	{
		pattern: "fetch sheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be downloaded",
			Action:  "Share the sheet as \"Anyone with the link\" or sign in with Google",
			Code:    "SHEET002",
		},
	},

	// =========================================================================
	// Upload Errors
	// =========================================================================
	{
		pattern: "upload cancelled",
		msg: UserMessage{
			Message: "Upload was cancelled",
			Action:  "Start a new upload when ready",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or turn off enrichment",
			Code:    "UPL005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB004",
		},
	},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels win over text patterns. If nothing matches, a generic
// fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
