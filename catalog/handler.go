package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type createAuthorRequest struct {
	Name string `json:"name" binding:"required"`
	Bio  string `json:"bio"`
}

type createBookRequest struct {
	Title    string `json:"title" binding:"required"`
	AuthorID string `json:"authorId" binding:"required"`
	Genre    string `json:"genre"`
	ISBN     string `json:"isbn"`
	Quantity int    `json:"quantity"`
}

type createStudentRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
	Department    string `json:"department"`
}

// RegisterRoutes mounts the author, book and student endpoints on rg.
func RegisterRoutes(rg *gin.RouterGroup, authors *AuthorStore, books *BookStore, students *StudentStore) {
	rg.GET("/authors", func(c *gin.Context) {
		out, err := authors.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
	rg.GET("/authors/:id", func(c *gin.Context) {
		a, err := authors.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	})
	rg.POST("/authors", func(c *gin.Context) {
		var req createAuthorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := authors.Create(c.Request.Context(), req.Name, req.Bio)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	})
	rg.PATCH("/authors/:id", func(c *gin.Context) {
		var upd AuthorUpdate
		if err := bindUpdate(c, &upd); err != nil {
			return
		}
		a, err := authors.Update(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	})
	rg.DELETE("/authors/:id", func(c *gin.Context) {
		if err := authors.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.GET("/books", func(c *gin.Context) {
		out, err := books.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
	rg.GET("/books/:id", func(c *gin.Context) {
		b, err := books.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	})
	rg.POST("/books", func(c *gin.Context) {
		var req createBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b, err := books.Create(c.Request.Context(), req.Title, req.AuthorID, req.Genre, req.ISBN, req.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	})
	rg.PATCH("/books/:id", func(c *gin.Context) {
		var upd BookUpdate
		if err := bindUpdate(c, &upd); err != nil {
			return
		}
		b, err := books.Update(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	})
	rg.DELETE("/books/:id", func(c *gin.Context) {
		if err := books.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.GET("/students", func(c *gin.Context) {
		out, err := students.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
	rg.GET("/students/:id", func(c *gin.Context) {
		st, err := students.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	})
	rg.POST("/students", func(c *gin.Context) {
		var req createStudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := students.Create(c.Request.Context(), req.Name, req.Email, req.ContactNumber, req.Department)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, st)
	})
	rg.PATCH("/students/:id", func(c *gin.Context) {
		var upd StudentUpdate
		if err := bindUpdate(c, &upd); err != nil {
			return
		}
		st, err := students.Update(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	})
	rg.DELETE("/students/:id", func(c *gin.Context) {
		if err := students.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// bindUpdate decodes a partial update body, rejecting unknown fields so
// typos do not silently become no-ops.
func bindUpdate(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	return nil
}

func writeError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
