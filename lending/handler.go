package lending

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type createRequest struct {
	StudentID   string     `json:"studentId" binding:"required"`
	LibrarianID string     `json:"librarianId" binding:"required"`
	BookID      string     `json:"bookId" binding:"required"`
	Kind        string     `json:"kind" binding:"required"`
	BorrowedAt  *time.Time `json:"borrowedAt"`
	DueAt       *time.Time `json:"dueAt"`
}

type transactionResponse struct {
	ID               string     `json:"id"`
	StudentID        string     `json:"studentId"`
	LibrarianID      string     `json:"librarianId"`
	BookID           string     `json:"bookId"`
	Kind             string     `json:"kind"`
	BorrowedAt       time.Time  `json:"borrowedAt"`
	DueAt            time.Time  `json:"dueAt"`
	Returned         bool       `json:"returned"`
	ReturnedAt       *time.Time `json:"returnedAt,omitempty"`
	NotificationSent bool       `json:"notificationSent"`
	StudentName      string     `json:"studentName"`
	LibrarianName    string     `json:"librarianName"`
	BookTitle        string     `json:"bookTitle"`
}

func toResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:               tx.ID,
		StudentID:        tx.StudentID,
		LibrarianID:      tx.LibrarianID,
		BookID:           tx.BookID,
		Kind:             string(tx.Kind),
		BorrowedAt:       tx.BorrowedAt,
		DueAt:            tx.DueAt,
		Returned:         tx.Returned,
		ReturnedAt:       tx.ReturnedAt,
		NotificationSent: tx.NotificationSent,
		StudentName:      tx.StudentName,
		LibrarianName:    tx.LibrarianName,
		BookTitle:        tx.BookTitle,
	}
}

// RegisterRoutes mounts the transaction endpoints on rg.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service, scanner *Scanner) {
	rg.GET("/transactions", func(c *gin.Context) {
		txs, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]transactionResponse, 0, len(txs))
		for _, tx := range txs {
			out = append(out, toResponse(tx))
		}
		c.JSON(http.StatusOK, out)
	})

	rg.GET("/transactions/stats", func(c *gin.Context) {
		borrowed, returned, err := svc.Stats(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"totalBorrowed": borrowed,
			"totalReturned": returned,
		})
	})

	rg.GET("/transactions/:id", func(c *gin.Context) {
		tx, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toResponse(tx))
	})

	rg.POST("/transactions", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := CreateInput{
			StudentID:   req.StudentID,
			LibrarianID: req.LibrarianID,
			BookID:      req.BookID,
			Kind:        Kind(req.Kind),
		}
		if req.BorrowedAt != nil {
			in.BorrowedAt = *req.BorrowedAt
		}
		if req.DueAt != nil {
			in.DueAt = *req.DueAt
		}

		tx, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toResponse(tx))
	})

	rg.POST("/transactions/:id/return", func(c *gin.Context) {
		tx, err := svc.Return(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toResponse(tx))
	})

	// The scheduler (external cron) hits this on a fixed cadence; the
	// count is advisory and not part of the contract.
	rg.POST("/transactions/overdue-scan", func(c *gin.Context) {
		processed, err := scanner.Scan(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"processed": processed})
	})
}

func writeError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrPublisherUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
