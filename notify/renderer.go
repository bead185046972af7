package notify

import (
	"fmt"
	"time"
)

// RenderOverdue produces the subject/body pair for an overdue-loan
// notification. Pure: no side effects, no failure modes; the caller
// guarantees the fields are populated.
func RenderOverdue(studentName, bookTitle string, dueAt time.Time) (subject, body string) {
	subject = "Overdue Book Notification"
	body = fmt.Sprintf(
		"Dear %s,\n\nYour book %q was due on %s and is now overdue. Please return it as soon as possible.\n\nThank you!\nLibrary Team",
		studentName, bookTitle, dueAt.Format("2006-01-02"),
	)
	return subject, body
}

// RenderCompleted produces the confirmation mail sent when a lending
// transaction is recorded or a book is returned.
func RenderCompleted(studentName, bookTitle, transactionID, kind string, at time.Time) (subject, body string) {
	subject = "Transaction Completed Successfully"
	body = fmt.Sprintf(
		"Hello %s,\n\nYour transaction has been successfully completed.\n\nTransaction ID: %s\nBook: %s\nTransaction Type: %s\nDate: %s\n\nThank you for using our library system.\n\nBest Regards,\nLibrary Team",
		studentName, transactionID, bookTitle, kind, at.Format("2006-01-02 15:04:05"),
	)
	return subject, body
}
