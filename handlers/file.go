package handlers

import (
	"github.com/gin-gonic/gin"
	"vault/utils"
)

func (h *Handler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "no file uploaded")
		return
	}
	defer file.Close()

	obj, err := h.media.Put(header.Filename, file)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, obj)
}

func (h *Handler) ServeFile(c *gin.Context) {
	path, err := h.media.Path(c.Param("filename"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	c.File(path)
}
