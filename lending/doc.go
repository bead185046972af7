// Package lending owns the book-lending transaction lifecycle: creation
// with due-date validation and snapshotting, the return and notified
// transitions, and the overdue scanner that feeds the notification queue.
package lending
