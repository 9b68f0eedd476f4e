package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/budgyapp/budgy-backend/internal/common"
	"github.com/budgyapp/budgy-backend/internal/receipts"
)

type processReceiptRequest struct {
	ExtractedText string `json:"extractedText"`
	UserID        string `json:"userId,omitempty"`
}

func (s *Server) handleProcessReceipt(c *gin.Context) {
	var req processReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, common.NewAppError(common.KindInvalidInput, "invalid request body", err))
		return
	}

	receipt, err := s.service.ProcessReceipt(c.Request.Context(), receipts.ProcessRequest{
		Identity:      identityFrom(c),
		UserID:        req.UserID,
		ExtractedText: req.ExtractedText,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (s *Server) handleListReceipts(c *gin.Context) {
	list, err := s.service.ListReceipts(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetReceipt(c *gin.Context) {
	receipt, err := s.service.GetReceipt(c.Request.Context(), identityFrom(c).UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *Server) handleUpdateReceipt(c *gin.Context) {
	var edit receipts.ReceiptEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		s.writeError(c, common.NewAppError(common.KindInvalidInput, "invalid request body", err))
		return
	}

	receipt, err := s.service.UpdateReceipt(c.Request.Context(), identityFrom(c).UserID, c.Param("id"), edit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *Server) handleDeleteReceipt(c *gin.Context) {
	if err := s.service.DeleteReceipt(c.Request.Context(), identityFrom(c).UserID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleExportReceipts(c *gin.Context) {
	userID := identityFrom(c).UserID
	list, err := s.service.ListReceipts(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	data, err := s.exporter.ReceiptsXLSX(userID, list)
	if err != nil {
		s.writeError(c, common.NewAppError(common.KindInternal, "building export", err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleGetBudget(c *gin.Context) {
	view, err := s.service.GetBudget(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type setBudgetRequest struct {
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

func (s *Server) handleSetBudget(c *gin.Context) {
	var req setBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, common.NewAppError(common.KindInvalidInput, "invalid request body", err))
		return
	}

	settings, err := s.service.SetBudget(c.Request.Context(), identityFrom(c).UserID, req.MonthlyBudget)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
