package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"siteflow/internal/apperr"
	"siteflow/internal/models"
	"siteflow/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

// formFile returns the "file" part, or nil when the request has none.
func formFile(c *gin.Context) *multipart.FileHeader {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil
	}
	return fh
}

// storeAttachment runs the upload gate, writes the file and records the
// attachment. The file is removed again if the row cannot be written.
func (h *Handler) storeAttachment(c *gin.Context, issue models.Issue, fh *multipart.FileHeader) (models.Attachment, error) {
	var att models.Attachment
	if err := storage.ValidateUpload(fh); err != nil {
		return att, err
	}

	stored, err := h.files.Save(issue.ID, fh)
	if err != nil {
		return att, err
	}

	att = models.Attachment{
		IssueID:  issue.ID,
		UserID:   caller(c).ID,
		File:     stored.Key,
		FileName: stored.Name,
		Size:     stored.Size,
	}
	if err := h.db.WithContext(c.Request.Context()).Omit(clause.Associations).Create(&att).Error; err != nil {
		h.removeFiles(c, []string{stored.Key})
		return att, dbErr(err, "")
	}
	att.URL = h.files.URL(att.File)
	return att, nil
}

// UploadAttachment accepts a multipart "file" part for an issue.
func (h *Handler) UploadAttachment(c *gin.Context) {
	issue, err := h.loadIssue(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	att, err := h.storeAttachment(c, issue, formFile(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "File uploaded successfully",
		"attachment_id": att.ID,
		"file_url":      att.URL,
		"file_name":     att.FileName,
		"file_size":     att.Size,
		"uploaded_by":   caller(c).Username,
		"uploaded_at":   att.UploadedAt,
		"issue_id":      issue.ID,
		"issue_title":   issue.IssueTitle,
	})
}

func (h *Handler) ListAttachments(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("uploaded_at desc, id desc")
	if s := c.Query("issue_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			h.fail(c, apperr.New(apperr.InvalidArgument, "issue_id must be a positive integer"))
			return
		}
		q = q.Where("issue_id = ?", id)
	}

	list := []models.Attachment{}
	if err := q.Find(&list).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	for i := range list {
		list[i].URL = h.files.URL(list[i].File)
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) findAttachment(c *gin.Context) (models.Attachment, error) {
	var att models.Attachment
	id, err := idParam(c, "id", "Attachment not found")
	if err != nil {
		return att, err
	}
	err = h.db.WithContext(c.Request.Context()).First(&att, id).Error
	att.URL = h.files.URL(att.File)
	return att, dbErr(err, "Attachment not found")
}

func (h *Handler) GetAttachment(c *gin.Context) {
	att, err := h.findAttachment(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, att)
}

// issueFromForm loads the issue named by the "issue" form field.
func (h *Handler) issueFromForm(c *gin.Context) (models.Issue, error) {
	var issue models.Issue
	id, err := strconv.ParseUint(c.PostForm("issue"), 10, 64)
	if err != nil || id == 0 {
		return issue, apperr.New(apperr.InvalidArgument, "issue is required")
	}
	if err := h.db.WithContext(c.Request.Context()).First(&issue, id).Error; err != nil {
		err = dbErr(err, "")
		if apperr.Is(err, apperr.NotFound) {
			err = apperr.Newf(apperr.InvalidArgument, "Invalid issue %d: object does not exist", id)
		}
		return issue, err
	}
	return issue, nil
}

// CreateAttachment is the multipart form equivalent of UploadAttachment
// with the issue given as a form field.
func (h *Handler) CreateAttachment(c *gin.Context) {
	issue, err := h.issueFromForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	att, err := h.storeAttachment(c, issue, formFile(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

// UpdateAttachment replaces the stored file and/or moves the attachment to
// another issue. PUT requires the file.
func (h *Handler) UpdateAttachment(c *gin.Context) {
	att, err := h.findAttachment(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.PostForm("issue") != "" {
		issue, err := h.issueFromForm(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		att.IssueID = issue.ID
	}

	fh := formFile(c)
	if fh == nil && c.Request.Method != http.MethodPatch {
		h.fail(c, storage.ValidateUpload(nil))
		return
	}

	oldKey := ""
	if fh != nil {
		stored, err := h.files.Save(att.IssueID, fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		oldKey = att.File
		att.File, att.FileName, att.Size = stored.Key, stored.Name, stored.Size
	}

	if err := h.db.WithContext(c.Request.Context()).Omit(clause.Associations).Save(&att).Error; err != nil {
		if oldKey != "" {
			h.removeFiles(c, []string{att.File})
		}
		h.fail(c, dbErr(err, ""))
		return
	}
	if oldKey != "" {
		h.removeFiles(c, []string{oldKey})
	}

	att.URL = h.files.URL(att.File)
	c.JSON(http.StatusOK, att)
}

func (h *Handler) DeleteAttachment(c *gin.Context) {
	att, err := h.findAttachment(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&att).Error; err != nil {
		h.fail(c, dbErr(err, ""))
		return
	}
	h.removeFiles(c, []string{att.File})
	c.Status(http.StatusNoContent)
}
