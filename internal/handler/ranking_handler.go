package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/handler/dto"
	"github.com/yourusername/detective-api/internal/service"
)

// RankingQueries - чтение рейтингов
type RankingQueries interface {
	RoleRanking(ctx context.Context, role entity.Role) ([]dto.RankingDTO, error)
	AllRankings(ctx context.Context) ([]dto.RankingDTO, error)
}

// RankingHandler отдает рейтинги и их выгрузку
type RankingHandler struct {
	rankings RankingQueries
	now      func() time.Time
}

// NewRankingHandler создает новый обработчик рейтингов
func NewRankingHandler(rankings RankingQueries) *RankingHandler {
	return &RankingHandler{rankings: rankings, now: time.Now}
}

// GetAll возвращает общий рейтинг всех ролей
func (h *RankingHandler) GetAll(c *gin.Context) {
	rows, err := h.rankings.AllRankings(c.Request.Context())
	if err != nil {
		respondError(c, "RankingHandler", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetByRole возвращает рейтинг одной роли
// GET /api/ranking/:role (detectives, culprits, clients, police)
func (h *RankingHandler) GetByRole(c *gin.Context) {
	role, ok := h.parseRole(c)
	if !ok {
		return
	}
	rows, err := h.rankings.RoleRanking(c.Request.Context(), role)
	if err != nil {
		respondError(c, "RankingHandler", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Export выгружает рейтинг роли в CSV или Excel
// GET /api/ranking/:role/export?format=csv|xlsx
func (h *RankingHandler) Export(c *gin.Context) {
	role, ok := h.parseRole(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		respondError(c, "RankingHandler", service.ErrUnsupportedExport)
		return
	}

	rows, err := h.rankings.RoleRanking(c.Request.Context(), role)
	if err != nil {
		respondError(c, "RankingHandler", err)
		return
	}

	filename := fmt.Sprintf("ranking_%s_%s", role, h.now().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, rows, filename)
		return
	}
	h.exportCSV(c, rows, filename)
}

func (h *RankingHandler) parseRole(c *gin.Context) (entity.Role, bool) {
	role, ok := service.ParseRankingRole(c.Param("role"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown ranking role: " + c.Param("role"), "error_type": "not_found"})
		return "", false
	}
	return role, true
}

var rankingHeaders = []string{"순위", "닉네임", "역할", "점수", "사건 수", "성공률(%)"}

// exportCSV выгружает рейтинг в CSV с BOM для корректного UTF-8 в Excel
func (h *RankingHandler) exportCSV(c *gin.Context, rows []dto.RankingDTO, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(rankingHeaders)
	for _, r := range rows {
		writer.Write([]string{
			strconv.Itoa(r.Rank),
			sanitizeForExcel(r.Nickname),
			r.Role,
			strconv.FormatInt(r.Score, 10),
			strconv.FormatInt(r.TotalCases, 10),
			strconv.FormatFloat(r.SuccessRate, 'f', 1, 64),
		})
	}
}

// exportXLSX выгружает рейтинг в Excel через StreamWriter
func (h *RankingHandler) exportXLSX(c *gin.Context, rows []dto.RankingDTO, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "랭킹"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RankingHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": "internal_server_error"})
		return
	}

	headers := make([]interface{}, len(rankingHeaders))
	for i, hdr := range rankingHeaders {
		headers[i] = hdr
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RankingHandler] Ошибка записи заголовков: %v", err)
	}

	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{r.Rank, sanitizeForExcel(r.Nickname), r.Role, r.Score, r.TotalCases, r.SuccessRate}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[RankingHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RankingHandler] Ошибка при Flush: %v", err)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RankingHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
