package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderOverdue(t *testing.T) {
	dueAt := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	subject, body := RenderOverdue("Ravi Sharma", "The Go Programming Language", dueAt)

	assert.Equal(t, "Overdue Book Notification", subject)
	assert.Contains(t, body, "Ravi Sharma")
	assert.Contains(t, body, `"The Go Programming Language"`)
	assert.Contains(t, body, "2025-03-14")
}

func TestRenderCompleted(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	subject, body := RenderCompleted("Ravi Sharma", "The Go Programming Language", "01HTXYZ", "borrow", at)

	assert.Equal(t, "Transaction Completed Successfully", subject)
	assert.Contains(t, body, "Transaction ID: 01HTXYZ")
	assert.Contains(t, body, "Book: The Go Programming Language")
	assert.Contains(t, body, "Transaction Type: borrow")
	assert.Contains(t, body, "2025-03-01 09:30:00")
}

func TestRenderOverdueIsPure(t *testing.T) {
	dueAt := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	s1, b1 := RenderOverdue("A", "B", dueAt)
	s2, b2 := RenderOverdue("A", "B", dueAt)

	assert.Equal(t, s1, s2)
	assert.Equal(t, b1, b2)
}
