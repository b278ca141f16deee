package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/response"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// FlightHandler 班次表 HTTP 处理器
type FlightHandler struct {
	resolver *shiftclock.Resolver
}

// NewFlightHandler 创建 FlightHandler
func NewFlightHandler(resolver *shiftclock.Resolver) *FlightHandler {
	return &FlightHandler{resolver: resolver}
}

// ListFlights 班次表；带 date 时同时给出该日各班次的 UTC 区间
// GET /api/v1/flights?date=YYYY-MM-DD
func (h *FlightHandler) ListFlights(c *gin.Context) {
	var (
		date    shiftclock.Date
		hasDate bool
	)
	if raw := c.Query("date"); raw != "" {
		d, err := shiftclock.ParseDate(raw)
		if err != nil {
			response.FailWithDetails(c, response.CodeValidation, "date 格式应为 YYYY-MM-DD", "invalid_date")
			return
		}
		date, hasDate = d, true
	}

	entries := shiftclock.Entries()
	result := make([]dto.FlightResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, dto.FlightResponse{
			Code:      string(e.Code),
			Start:     e.StartText(),
			End:       e.EndText(),
			Overnight: e.Overnight,
			Display:   e.Display,
			Window:    h.window(date, hasDate, e),
		})
	}
	response.OK(c, result)
}

func (h *FlightHandler) window(d shiftclock.Date, ok bool, e shiftclock.Entry) *dto.ShiftWindow {
	if !ok {
		return nil
	}
	iv := h.resolver.Resolve(d, e.Code)
	return &dto.ShiftWindow{
		StartUTC:  iv.Start.Format(time.RFC3339),
		EndUTC:    iv.End.Format(time.RFC3339),
		Display:   e.Display,
		Overnight: e.Overnight,
	}
}
